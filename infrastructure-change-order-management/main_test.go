package main

import (
	"context"
	"net/http"
	"testing"

	"dashboard/lib/auth"
	"dashboard/lib/data"
	"dashboard/lib/models"
	"dashboard/lib/permissions"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChangeOrderRepository struct {
	orders     map[string]*models.ChangeOrder
	listStatus models.ChangeOrderStatus
	decisions  int
}

func (m *mockChangeOrderRepository) CreateChangeOrder(ctx context.Context, projectID string, request *models.CreateChangeOrderRequest, userID string) (*models.ChangeOrder, error) {
	return &models.ChangeOrder{ChangeOrderID: "co-new", ProjectID: projectID, Title: request.Title, Amount: request.Amount, Status: models.ChangeOrderPending, CreatedBy: userID}, nil
}

func (m *mockChangeOrderRepository) ListChangeOrders(ctx context.Context, projectID string, status models.ChangeOrderStatus) ([]models.ChangeOrder, error) {
	m.listStatus = status
	var out []models.ChangeOrder
	for _, co := range m.orders {
		if co.ProjectID == projectID {
			out = append(out, *co)
		}
	}
	return out, nil
}

func (m *mockChangeOrderRepository) GetChangeOrderByID(ctx context.Context, changeOrderID string) (*models.ChangeOrder, error) {
	co, ok := m.orders[changeOrderID]
	if !ok {
		return nil, data.ErrChangeOrderNotFound
	}
	copied := *co
	return &copied, nil
}

func (m *mockChangeOrderRepository) decide(changeOrderID string, status models.ChangeOrderStatus, userID string) (*models.ChangeOrder, error) {
	m.decisions++
	co := m.orders[changeOrderID]
	if co.Status != models.ChangeOrderPending {
		return nil, data.ErrChangeOrderDecided
	}
	co.Status = status
	co.ApprovedBy = &userID
	return co, nil
}

func (m *mockChangeOrderRepository) ApproveChangeOrder(ctx context.Context, changeOrderID, userID string) (*models.ChangeOrder, error) {
	return m.decide(changeOrderID, models.ChangeOrderApproved, userID)
}

func (m *mockChangeOrderRepository) RejectChangeOrder(ctx context.Context, changeOrderID, reason, userID string) (*models.ChangeOrder, error) {
	co, err := m.decide(changeOrderID, models.ChangeOrderRejected, userID)
	if err == nil {
		co.RejectionReason = &reason
	}
	return co, err
}

// stubProjects serves a single wood division project
type stubProjects struct {
	data.ProjectRepository
}

func (stubProjects) GetProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	if projectID != "p-1" {
		return nil, data.ErrProjectNotFound
	}
	return &models.Project{ProjectID: "p-1", DivisionID: "wood", Status: models.ProjectStatusActive}, nil
}

func newHandler(orders ...*models.ChangeOrder) (*Handler, *mockChangeOrderRepository) {
	repo := &mockChangeOrderRepository{orders: map[string]*models.ChangeOrder{}}
	for _, co := range orders {
		repo.orders[co.ChangeOrderID] = co
	}
	logger, _ := test.NewNullLogger()
	return &Handler{
		ChangeOrders: repo,
		Projects:     stubProjects{},
		Evaluator:    permissions.NewEvaluator(),
		Logger:       logger,
	}, repo
}

func pending(id string, amount float64) *models.ChangeOrder {
	return &models.ChangeOrder{ChangeOrderID: id, ProjectID: "p-1", Title: "Extra framing", Amount: amount, Status: models.ChangeOrderPending}
}

func request(t *testing.T, method, resource string, params map[string]string, body string, pairs ...string) events.APIGatewayProxyRequest {
	t.Helper()
	var memberships []models.DivisionMembership
	for i := 0; i+1 < len(pairs); i += 2 {
		memberships = append(memberships, models.DivisionMembership{DivisionID: pairs[i], Role: models.Role(pairs[i+1])})
	}
	encoded, err := auth.EncodeMemberships(memberships)
	require.NoError(t, err)

	return events.APIGatewayProxyRequest{
		HTTPMethod:     method,
		Resource:       resource,
		PathParameters: params,
		Body:           body,
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]interface{}{
				"claims": map[string]interface{}{
					"user_id":     "u-1",
					"email":       "caller@example.com",
					"sub":         "sub-1",
					"memberships": encoded,
				},
			},
		},
	}
}

func coParams(id string) map[string]string {
	return map[string]string{"changeOrderId": id}
}

func TestCreateChangeOrder(t *testing.T) {
	h, _ := newHandler()
	params := map[string]string{"projectId": "p-1"}

	resp, _ := h.Handle(context.Background(), request(t, http.MethodPost, "/projects/{projectId}/change-orders", params,
		`{"title":"Extra framing","amount":1200}`, "wood", "estimator"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodPost, "/projects/{projectId}/change-orders", params,
		`{"title":"Extra framing","amount":1200}`, "wood", "client"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodPost, "/projects/{projectId}/change-orders", params,
		`{"title":"","amount":1200}`, "wood", "estimator"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodPost, "/projects/{projectId}/change-orders",
		map[string]string{"projectId": "p-2"}, `{"title":"Extra framing","amount":1}`, "wood", "admin"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetChangeOrders(t *testing.T) {
	h, repo := newHandler(pending("co-1", 100))
	params := map[string]string{"projectId": "p-1"}

	req := request(t, http.MethodGet, "/projects/{projectId}/change-orders", params, "", "group", "client")
	req.QueryStringParameters = map[string]string{"status": "pending"}
	resp, _ := h.Handle(context.Background(), req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ChangeOrderPending, repo.listStatus)
	assert.Contains(t, resp.Body, `"total":1`)

	req.QueryStringParameters = map[string]string{"status": "maybe"}
	resp, _ = h.Handle(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodGet, "/projects/{projectId}/change-orders", params, "", "wood", "subcontractor"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetChangeOrder(t *testing.T) {
	h, _ := newHandler(pending("co-1", 100))

	resp, _ := h.Handle(context.Background(), request(t, http.MethodGet, "/change-orders/{changeOrderId}", coParams("co-1"), "", "wood", "client"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodGet, "/change-orders/{changeOrderId}", coParams("co-9"), "", "wood", "client"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodGet, "/change-orders/{changeOrderId}", coParams("co-1"), "", "steel", "manager"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestApproveChangeOrder(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		pairs    []string
		expected int
	}{
		{"manager under threshold", 4999.99, []string{"wood", "manager"}, http.StatusOK},
		{"manager at threshold", 5000, []string{"wood", "manager"}, http.StatusForbidden},
		{"admin above threshold", 250000, []string{"steel", "admin"}, http.StatusOK},
		{"supervisor lacks approve permission", 10, []string{"wood", "supervisor"}, http.StatusForbidden},
		{"manager of another division", 10, []string{"steel", "manager", "wood", "client"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := newHandler(pending("co-1", tt.amount))

			resp, _ := h.Handle(context.Background(), request(t, http.MethodPost, "/change-orders/{changeOrderId}/approve", coParams("co-1"), "", tt.pairs...))

			assert.Equal(t, tt.expected, resp.StatusCode)
			if tt.expected == http.StatusOK {
				assert.Equal(t, models.ChangeOrderApproved, repo.orders["co-1"].Status)
			} else {
				assert.Equal(t, 0, repo.decisions)
			}
		})
	}
}

func TestApproveChangeOrder_AlreadyDecided(t *testing.T) {
	decided := pending("co-1", 100)
	decided.Status = models.ChangeOrderRejected
	h, _ := newHandler(decided)

	resp, _ := h.Handle(context.Background(), request(t, http.MethodPost, "/change-orders/{changeOrderId}/approve", coParams("co-1"), "", "wood", "manager"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRejectChangeOrder(t *testing.T) {
	h, repo := newHandler(pending("co-1", 100))

	resp, _ := h.Handle(context.Background(), request(t, http.MethodPost, "/change-orders/{changeOrderId}/reject", coParams("co-1"), `{"reason":"  "}`, "wood", "manager"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, repo.decisions)

	resp, _ = h.Handle(context.Background(), request(t, http.MethodPost, "/change-orders/{changeOrderId}/reject", coParams("co-1"), `{"reason":"Out of scope"}`, "wood", "manager"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ChangeOrderRejected, repo.orders["co-1"].Status)
	require.NotNil(t, repo.orders["co-1"].RejectionReason)
	assert.Equal(t, "Out of scope", *repo.orders["co-1"].RejectionReason)
}
