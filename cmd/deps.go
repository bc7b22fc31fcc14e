package main

import (
	"context"

	"mealplanner/config"
	"mealplanner/logging"
	"mealplanner/routes"
	"mealplanner/services"
	"mealplanner/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"gorm.io/gorm"
)

// buildDeps constructs every service. AWS integrations are switched on one by one
// by their settings; a missing AWS config only disables them.
func buildDeps(ctx context.Context, db *gorm.DB, s *config.Settings) routes.Deps {
	var (
		images services.ImageUploader
		labels services.LabelDetector
		mailer services.Mailer
		snsAPI services.SNSAPI
	)

	awsCfg, awsOK := loadAWS(ctx, s.AWS)
	if awsOK {
		if s.AWS.S3Bucket != "" {
			images = utils.NewS3ImageStore(awsCfg, s.AWS.S3Bucket, s.AWS.CloudFrontURL)
			logging.Info().Str("bucket", s.AWS.S3Bucket).Msg("recipe images go to S3")
		}
		if s.AWS.SESSender != "" {
			mailer = utils.NewSESMailer(awsCfg, s.AWS.SESSender)
		}
		if s.AWS.SNSPlatformARN != "" {
			snsAPI = sns.NewFromConfig(awsCfg)
		}
		if s.AWS.Rekognition {
			labels = services.NewRekognitionService(rekognition.NewFromConfig(awsCfg))
		}
	}

	tokens := utils.NewTokenIssuer(s.Auth.JWTSecret, s.Auth.AccessTTL, s.Auth.RefreshTTL)
	hub := services.NewRealtimeHub()
	push := services.NewPushService(db, snsAPI, s.AWS.SNSPlatformARN)
	notifications := services.NewNotificationService(db, hub, push)
	prefs := services.NewPreferenceService(db)

	return routes.Deps{
		Tokens:         tokens,
		CORSOrigins:    s.Server.CORSOrigins,
		LoginRateLimit: s.Auth.LoginRateLimit,

		Auth:          services.NewAuthService(db, tokens),
		Users:         services.NewUserService(db),
		Preferences:   prefs,
		Recipes:       services.NewRecipeService(db, images, labels),
		Ingredients:   services.NewIngredientService(db),
		Meals:         services.NewMealService(db),
		Plans:         services.NewMealPlanService(db, prefs, services.NewPlanner(nil), notifications, s.Planner.MaxDays),
		Shopping:      services.NewShoppingListService(db, mailer),
		Notifications: notifications,
		Push:          push,
		Hub:           hub,
	}
}

func loadAWS(ctx context.Context, s config.AWSSettings) (aws.Config, bool) {
	if s.Region == "" {
		logging.Info().Msg("AWS_REGION not set, AWS integrations disabled")
		return aws.Config{}, false
	}
	cfg, err := utils.LoadAWSConfig(ctx, s.Region)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to load AWS config, AWS integrations disabled")
		return aws.Config{}, false
	}
	return cfg, true
}
