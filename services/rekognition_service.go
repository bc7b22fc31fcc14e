package services

import (
	"context"
	"fmt"

	"mealplanner/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/sony/gobreaker/v2"
)

// RekognitionAPI is the slice of the Rekognition client used here.
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, opts ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

type RekognitionService struct {
	client  RekognitionAPI
	breaker *gobreaker.CircuitBreaker[*rekognition.DetectLabelsOutput]
}

func NewRekognitionService(client RekognitionAPI) *RekognitionService {
	return &RekognitionService{
		client:  client,
		breaker: utils.NewBreaker[*rekognition.DetectLabelsOutput]("rekognition"),
	}
}

// DetectLabels returns up to ten labels seen with at least 75% confidence.
func (r *RekognitionService) DetectLabels(ctx context.Context, img *utils.DataURI) ([]string, error) {
	out, err := r.breaker.Execute(func() (*rekognition.DetectLabelsOutput, error) {
		return r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
			Image:         &types.Image{Bytes: img.Data},
			MaxLabels:     aws.Int32(10),
			MinConfidence: aws.Float32(75),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("label detection failed: %w", err)
	}

	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name != nil {
			labels = append(labels, *l.Name)
		}
	}
	return labels, nil
}
