package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portfolio-backend/backend/internal/domain/portfolio"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dm "github.com/alibabacloud-go/dm-20151123/v2/client"
)

const defaultDirectMailEndpoint = "dm.aliyuncs.com"

// directMail 是 AliyunSender 用到的 DirectMail 接口子集。
type directMail interface {
	SingleSendMail(request *dm.SingleSendMailRequest) (*dm.SingleSendMailResponse, error)
}

// AliyunSender 通过阿里云 DirectMail 把新留言转发给站长。
type AliyunSender struct {
	api directMail
	cfg AliyunConfig
}

// NewAliyunSender 校验配置并创建 DirectMail 客户端。
func NewAliyunSender(cfg AliyunConfig) (*AliyunSender, error) {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, errors.New("aliyun access key not configured")
	}
	if cfg.AccountName == "" || cfg.To == "" {
		return nil, errors.New("aliyun account name and recipient are required")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultDirectMailEndpoint
	}
	conf := new(openapi.Config).
		SetAccessKeyId(cfg.AccessKeyID).
		SetAccessKeySecret(cfg.AccessKeySecret).
		SetEndpoint(endpoint)
	if cfg.RegionID != "" {
		conf.SetRegionId(cfg.RegionID)
	}
	client, err := dm.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("init aliyun directmail client: %w", err)
	}
	return &AliyunSender{api: client, cfg: cfg}, nil
}

func (s *AliyunSender) Name() string { return "aliyun" }

// NotifyContact 发送留言通知。SDK 调用不接受 context，ctx 结束时直接返回，后台调用继续执行完。
func (s *AliyunSender) NotifyContact(ctx context.Context, msg *portfolio.ContactMessage) error {
	if s == nil || s.api == nil {
		return errors.New("aliyun sender not configured")
	}
	request := contactMailRequest(s.cfg, msg)

	done := make(chan error, 1)
	go func() {
		_, err := s.api.SingleSendMail(request)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("aliyun single send mail to %s: %w", s.cfg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// contactMailRequest 组装 SingleSendMail 请求，标签用于在控制台按来源统计。
func contactMailRequest(cfg AliyunConfig, msg *portfolio.ContactMessage) *dm.SingleSendMailRequest {
	subject, textBody, htmlBody := composeContactContent(msg)
	request := new(dm.SingleSendMailRequest).
		SetAccountName(cfg.AccountName).
		SetToAddress(cfg.To).
		SetAddressType(cfg.AddressType).
		SetReplyToAddress(false).
		SetSubject(subject).
		SetTextBody(textBody).
		SetHtmlBody(htmlBody)
	if cfg.FromAlias != "" {
		request.SetFromAlias(cfg.FromAlias)
	}
	if cfg.TagName != "" {
		request.SetTagName(cfg.TagName)
	}
	return request
}
