package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"mealplanner/logging"
	"mealplanner/models"
	"mealplanner/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
)

// SNSAPI is the part of the SNS client push delivery needs.
type SNSAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, opts ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, opts ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	db          *gorm.DB
	sns         SNSAPI
	platformArn string
	breaker     *gobreaker.CircuitBreaker[*awssns.PublishOutput]
}

// NewPushService stores devices in db. With a nil client devices can still be
// toggled but registration reports ErrUnavailable and pushes are skipped.
func NewPushService(db *gorm.DB, client SNSAPI, platformArn string) *PushService {
	return &PushService{
		db:          db,
		sns:         client,
		platformArn: platformArn,
		breaker:     utils.NewBreaker[*awssns.PublishOutput]("sns"),
	}
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required,oneof=android ios"`
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) enabled() bool {
	return p.sns != nil && p.platformArn != ""
}

func (p *PushService) RegisterDevice(ctx context.Context, userID uint, platform, token string) (*models.UserDevice, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform != "android" && platform != "ios" {
		return nil, invalid("unknown platform %q", platform)
	}
	if strings.TrimSpace(token) == "" {
		return nil, invalid("token is required")
	}
	if !p.enabled() {
		return nil, fmt.Errorf("push notifications: %w", ErrUnavailable)
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create platform endpoint: %w", err)
	}

	hash := tokenHash(token)
	var dev models.UserDevice
	err = p.db.WithContext(ctx).Where("user_id = ? AND token_hash = ?", userID, hash).First(&dev).Error
	switch {
	case err == nil:
		dev.EndpointARN = aws.ToString(out.EndpointArn)
		dev.Platform = platform
		dev.UpdatedAt = time.Now()
		err = p.db.WithContext(ctx).Save(&dev).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		dev = models.UserDevice{
			UserID:      userID,
			Platform:    platform,
			TokenHash:   hash,
			EndpointARN: aws.ToString(out.EndpointArn),
			Enabled:     true,
		}
		err = p.db.WithContext(ctx).Create(&dev).Error
	}
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// SetEnabled flips push delivery for every device of userID.
func (p *PushService) SetEnabled(ctx context.Context, userID uint, enabled bool) error {
	return p.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}

// PushToUser is best effort; failures are logged and never returned.
func (p *PushService) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	if !p.enabled() {
		return
	}
	var devices []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&devices).Error; err != nil {
		logging.Ctx(ctx).Error().Err(err).Uint("user_id", userID).Msg("failed to load devices")
		return
	}
	if len(devices) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})

	for _, d := range devices {
		_, err := p.breaker.Execute(func() (*awssns.PublishOutput, error) {
			return p.sns.Publish(ctx, &awssns.PublishInput{
				MessageStructure: aws.String("json"),
				Message:          aws.String(string(raw)),
				TargetArn:        aws.String(d.EndpointARN),
			})
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Uint("device_id", d.ID).Msg("push publish failed")
		}
	}
}
