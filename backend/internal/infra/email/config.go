package email

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SMTPConfig 描述 SMTP 邮件发送所需的环境配置。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// To 接收联系表单通知的地址。
	To string
}

// AliyunConfig 描述阿里云邮件推送（DirectMail）的必要配置。
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	RegionID        string
	AccountName     string
	FromAlias       string
	TagName         string
	Endpoint        string
	AddressType     int32
	To              string
}

// LoadSMTPConfigFromEnv 从环境变量读取 SMTP 配置。
// 返回值：配置、是否启用、错误。
func LoadSMTPConfigFromEnv(to string) (SMTPConfig, bool, error) {
	host := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	portStr := strings.TrimSpace(os.Getenv("SMTP_PORT"))
	from := strings.TrimSpace(os.Getenv("SMTP_FROM"))
	to = strings.TrimSpace(to)

	if host == "" || portStr == "" || from == "" || to == "" {
		return SMTPConfig{}, false, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return SMTPConfig{}, false, fmt.Errorf("parse SMTP_PORT: %w", err)
	}

	return SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     from,
		To:       to,
	}, true, nil
}

// LoadAliyunConfigFromEnv 从环境变量读取阿里云邮件推送配置。
// 返回值：配置、是否启用、错误。
func LoadAliyunConfigFromEnv(to string) (AliyunConfig, bool, error) {
	accessKey := strings.TrimSpace(os.Getenv("ALIYUN_DM_ACCESS_KEY_ID"))
	secret := strings.TrimSpace(os.Getenv("ALIYUN_DM_ACCESS_KEY_SECRET"))
	region := strings.TrimSpace(os.Getenv("ALIYUN_DM_REGION_ID"))
	accountName := strings.TrimSpace(os.Getenv("ALIYUN_DM_ACCOUNT_NAME"))
	to = strings.TrimSpace(to)

	if accessKey == "" || secret == "" || region == "" || accountName == "" || to == "" {
		return AliyunConfig{}, false, nil
	}

	endpoint := strings.TrimSpace(os.Getenv("ALIYUN_DM_ENDPOINT"))
	if endpoint == "" {
		endpoint = "dm.aliyuncs.com"
	}

	addressType := int32(1)
	if raw := strings.TrimSpace(os.Getenv("ALIYUN_DM_ADDRESS_TYPE")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return AliyunConfig{}, false, fmt.Errorf("parse ALIYUN_DM_ADDRESS_TYPE: %w", err)
		}
		switch parsed {
		case 0, 1:
			// AddressType=0 会生成随机发件地址，这里统一使用 1。
		default:
			return AliyunConfig{}, false, fmt.Errorf("invalid ALIYUN_DM_ADDRESS_TYPE: %d", parsed)
		}
	}

	return AliyunConfig{
		AccessKeyID:     accessKey,
		AccessKeySecret: secret,
		RegionID:        region,
		AccountName:     accountName,
		FromAlias:       strings.TrimSpace(os.Getenv("ALIYUN_DM_FROM_ALIAS")),
		TagName:         strings.TrimSpace(os.Getenv("ALIYUN_DM_TAG_NAME")),
		Endpoint:        endpoint,
		AddressType:     addressType,
		To:              to,
	}, true, nil
}
