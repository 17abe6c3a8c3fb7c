package logging

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ModuleFields 提供模块 id/名称字段，供注册表与物品包装层复用。
func ModuleFields(action string, id uuid.UUID, name string) logrus.Fields {
	return logrus.Fields{
		"action":      action,
		"module_id":   id.String(),
		"module_name": name,
	}
}

// CacheFields 提供 tracking id 与淘汰原因字段，供物品缓存日志复用。
func CacheFields(action string, trackingID uuid.UUID, cause string) logrus.Fields {
	return logrus.Fields{
		"action":      action,
		"tracking_id": trackingID.String(),
		"cause":       cause,
	}
}
