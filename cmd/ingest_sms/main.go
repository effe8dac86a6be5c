package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"saved-places-backend/internal/ingest"
	"saved-places-backend/internal/models"
	"saved-places-backend/internal/services"
)

// placeStore is the subset of the storage service the ingestor needs
type placeStore interface {
	CreatePlace(ctx context.Context, place *models.Place) error
}

// placeResolver resolves a short-link place identifier
type placeResolver interface {
	LookupPlace(ctx context.Context, placeID string) (*models.ResolvedPlace, error)
}

// smsIngestor handles one Twilio SMS webhook delivery
type smsIngestor struct {
	store      placeStore
	maps       placeResolver
	classifier *services.CategoryClassifier
}

// Services are built once per process so the Apple Maps access token cache
// survives across invocations of the same warm instance.
var (
	ingestor     *smsIngestor
	ingestorErr  error
	ingestorOnce sync.Once
)

func getIngestor() (*smsIngestor, error) {
	ingestorOnce.Do(func() {
		ingestor, ingestorErr = newSMSIngestor()
	})
	return ingestor, ingestorErr
}

// newSMSIngestor creates an ingestor with all required services
func newSMSIngestor() (*smsIngestor, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	placesTable := os.Getenv("PLACES_TABLE")
	profilesTable := os.Getenv("PROFILES_TABLE")
	if placesTable == "" || profilesTable == "" {
		return nil, fmt.Errorf("required environment variables not set: PLACES_TABLE, PROFILES_TABLE")
	}

	return &smsIngestor{
		store:      services.NewDynamoDBService(dynamodb.NewFromConfig(cfg), placesTable, profilesTable),
		maps:       services.NewAppleMapsClient(),
		classifier: services.NewCategoryClassifier(),
	}, nil
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod != "POST" {
		return textResponse(405, "Only POST allowed"), nil
	}

	msg, err := parseWebhookForm(request)
	if err != nil {
		log.Printf("Malformed webhook body: %v", err)
		return textResponse(400, "Malformed form body"), nil
	}

	ingestor, err := getIngestor()
	if err != nil {
		log.Printf("ERROR: failed to initialize ingestor: %v", err)
		return textResponse(500, "Error saving place"), nil
	}

	place, err := ingestor.ingestMessage(ctx, msg)
	if err != nil {
		log.Printf("ERROR: insert place failed: %v", err)
		return textResponse(500, "Error saving place"), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/xml"},
		Body:       buildTwiMLReply(place.Title),
	}, nil
}

// ingestMessage runs the full pipeline for one message: link extraction,
// classification, best-effort enrichment, hashtag derivation, and the
// storage insert. Only the insert failure is terminal.
func (si *smsIngestor) ingestMessage(ctx context.Context, msg ingest.InboundMessage) (*models.Place, error) {
	mapsURL := ingest.ExtractMapsURL(msg.Body)

	resolved := &models.ResolvedPlace{}
	if mapsURL != "" {
		link := ingest.ClassifyMapsURL(mapsURL)
		switch link.Kind {
		case ingest.LinkKindShort:
			place, err := si.maps.LookupPlace(ctx, link.PlaceID)
			if err != nil {
				// Don't fail ingestion if enrichment fails; still store raw text/url
				log.Printf("Apple enrichment error for %s: %v", link.PlaceID, err)
			} else {
				resolved = place
				log.Printf("Apple place lookup: placeID=%s resolved=%+v", link.PlaceID, resolved)
			}
		case ingest.LinkKindQuery:
			resolved = ingest.ParseQueryLink(mapsURL)
		}
	}

	placeID := uuid.New().String()
	place := ingest.AssemblePlace(placeID, msg, mapsURL, resolved, time.Now())

	place.Category = si.suggestCategory(ctx, place.Title, place.Notes)

	if err := si.store.CreatePlace(ctx, place); err != nil {
		return nil, err
	}

	return place, nil
}

// suggestCategory is best-effort; any failure yields the default
func (si *smsIngestor) suggestCategory(ctx context.Context, title, notes string) string {
	if si.classifier == nil {
		return models.CategoryOther
	}

	category, err := si.classifier.SuggestCategory(ctx, title, notes)
	if err != nil {
		log.Printf("Category suggestion failed: %v", err)
		return models.CategoryOther
	}
	return category
}

// parseWebhookForm decodes the form-encoded Twilio delivery. API Gateway
// base64-encodes binary-safe bodies, so both encodings are handled.
func parseWebhookForm(request events.APIGatewayProxyRequest) (ingest.InboundMessage, error) {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return ingest.InboundMessage{}, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = string(decoded)
	}

	form, err := url.ParseQuery(body)
	if err != nil {
		return ingest.InboundMessage{}, fmt.Errorf("failed to parse form body: %w", err)
	}

	return ingest.InboundMessage{
		FromPhone: form.Get("From"),
		Body:      form.Get("Body"),
	}, nil
}

// buildTwiMLReply renders the minimal Twilio reply message
func buildTwiMLReply(title string) string {
	saved := "Saved"
	if title != "" {
		saved = fmt.Sprintf("Saved (%s)", title)
	}
	return fmt.Sprintf("<Response>\n  <Message>%s</Message>\n</Response>", saved)
}

func textResponse(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       body,
	}
}

func main() {
	lambda.Start(handleRequest)
}
