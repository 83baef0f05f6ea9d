package minio

import (
	"Herald/internal/api/config"
	"Herald/internal/pkg/consts"
	"fmt"
	"strings"
)

// GetPublicURL 将对象名转换为对外可访问的地址
// 已是完整地址的直接返回，空值使用默认头像
func GetPublicURL(cfg config.MinIOConfig, objectName string) string {
	if objectName == "" {
		objectName = consts.DefaultAvatarURL
	}
	if strings.HasPrefix(objectName, "http://") || strings.HasPrefix(objectName, "https://") {
		return objectName
	}

	protocol := "http"
	if cfg.ExternalUseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, cfg.ExternalEndpoint, cfg.MainBucket, strings.TrimPrefix(objectName, "/"))
}
