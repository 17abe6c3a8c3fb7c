// Package module 维护模块注册表：将稳定的模块 id 与名称映射到反序列化工厂，
// 并在加载时从物品属性存储中还原模块实例。
//
// 模块作者需要：
//  1. 选定一个全局唯一的 UUID 与名称，不得使用 item.TrackingKey；
//  2. 实现 Module 接口（可嵌入 Base 携带 Tag）；
//  3. 在启动阶段调用 Registry.Register 注册工厂函数。
//
// 注册表是显式创建的值，调用方自行持有并传递引用，不存在进程级单例。
package module
