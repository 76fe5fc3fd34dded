package data

import (
	"context"

	"dashboard/lib/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
)

type SSMRepository interface {
	GetParameters(ctx context.Context) (map[string]string, error)
}

type SSMClientInterface interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

type SSMDao struct {
	SSM    SSMClientInterface
	Logger *logrus.Logger
}

// GetParameters reads every parameter under the root path, following pagination
func (client *SSMDao) GetParameters(ctx context.Context) (map[string]string, error) {
	params := map[string]string{}
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(constants.SSM_ROOT_PATH),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	pages := 0
	for {
		output, err := client.SSM.GetParametersByPath(ctx, input)
		if err != nil {
			return nil, err
		}
		pages++

		for _, param := range output.Parameters {
			if param.Name == nil || param.Value == nil {
				continue
			}
			params[*param.Name] = *param.Value
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	if client.Logger != nil && client.Logger.IsLevelEnabled(logrus.DebugLevel) {
		client.Logger.WithFields(logrus.Fields{
			"operation":    "GetParameters",
			"params_count": len(params),
			"pages":        pages,
		}).Debug("Loaded SSM parameters")
	}
	return params, nil
}
