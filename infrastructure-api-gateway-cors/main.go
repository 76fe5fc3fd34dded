package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"dashboard/lib/api"
	"dashboard/lib/clients"
	"dashboard/lib/config"
	"dashboard/lib/data"
	"dashboard/lib/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// Handler answers CORS preflight requests for the dashboard API
type Handler struct {
	Config *config.Config
	Logger *logrus.Logger
}

// Handle reflects the request origin when it is allowed
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestOrigin := request.Headers["origin"]
	if requestOrigin == "" {
		requestOrigin = request.Headers["Origin"]
	}
	if requestOrigin == "" {
		h.Logger.WithField("operation", "Handle").Warn("Origin is not present in the request headers")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
	}

	if !h.Config.IsOriginAllowed(requestOrigin) {
		h.Logger.WithFields(logrus.Fields{
			"origin":    requestOrigin,
			"operation": "Handle",
		}).Warn("Unauthorized origin")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusForbidden}, nil
	}

	if h.Logger.IsLevelEnabled(logrus.DebugLevel) {
		h.Logger.WithFields(logrus.Fields{
			"origin":    requestOrigin,
			"operation": "Handle",
		}).Debug("Allowed origin")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    api.CORSHeaders(requestOrigin),
	}, nil
}

func main() {
	ctx := context.Background()
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	logger := util.NewLogger(isLocal)

	ssmRepository := &data.SSMDao{
		SSM:    clients.NewSSMClient(isLocal),
		Logger: logger,
	}
	ssmParams, err := ssmRepository.GetParameters(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	cfg, err := config.Load(ssmParams, os.Getenv)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Invalid configuration")
	}

	h := &Handler{Config: cfg, Logger: logger}
	lambda.Start(h.Handle)
}
