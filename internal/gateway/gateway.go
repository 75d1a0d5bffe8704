package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lsy88/sentinel-dash/internal/apierr"
	"github.com/lsy88/sentinel-dash/internal/metrics"
	"github.com/lsy88/sentinel-dash/internal/model"
	"github.com/lsy88/sentinel-dash/internal/notify"
)

var ErrNoCredential = errors.New("no admin credential")

// Writer is the mutating half of the remote API. Satisfied by *client.Client.
type Writer interface {
	CreateMonitor(ctx context.Context, token string, in model.MonitorInput) (model.Monitor, error)
	UpdateMonitor(ctx context.Context, token string, in model.MonitorInput) (model.Monitor, error)
	DeleteMonitor(ctx context.Context, token string, id int64) error
	CreateIncident(ctx context.Context, token string, in model.IncidentInput) (model.Incident, error)
	DeleteIncident(ctx context.Context, token string, id int64) error
	CreateWebhook(ctx context.Context, token string, in model.WebhookInput) (model.Webhook, error)
	UpdateWebhook(ctx context.Context, token string, id int64, in model.WebhookInput) (model.Webhook, error)
	DeleteWebhook(ctx context.Context, token string, id int64) error
	VerifyToken(ctx context.Context, candidate string) (bool, error)
}

type Tokens interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

type Refresher interface {
	Refresh(ctx context.Context) error
	History(ctx context.Context, monitorID int64) ([]model.DailyStats, error)
}

// Confirmer asks the user before a destructive call.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

var (
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
	NeverConfirm  Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })

	// ContextConfirm approves only when the caller marked ctx with
	// WithConfirmation(ctx, true).
	ContextConfirm Confirmer = ConfirmFunc(func(ctx context.Context, _ string) bool {
		ok, _ := ctx.Value(confirmKey{}).(bool)
		return ok
	})
)

type confirmKey struct{}

func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

type Deps struct {
	Logger  *zap.Logger
	API     Writer
	Tokens  Tokens
	Sync    Refresher
	Notify  *notify.Router
	Confirm Confirmer
}

// Gateway runs every admin operation: validate, gate on the credential,
// call, then refresh and notify.
type Gateway struct {
	deps     Deps
	validate *validator.Validate
}

func New(deps Deps) *Gateway {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Confirm == nil {
		deps.Confirm = AlwaysConfirm
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Gateway{deps: deps, validate: v}
}

func (g *Gateway) AddMonitor(ctx context.Context, in model.MonitorInput) error {
	in = normalizeMonitor(in)
	return g.mutate(ctx, "create_monitor", "Monitor added", in, func(token string) error {
		_, err := g.deps.API.CreateMonitor(ctx, token, in)
		return err
	})
}

func (g *Gateway) UpdateMonitor(ctx context.Context, in model.MonitorInput) error {
	in = normalizeMonitor(in)
	if in.ID <= 0 {
		return g.fail("update_monitor", apierr.Invalid("monitor id is required"))
	}
	return g.mutate(ctx, "update_monitor", "Monitor updated", in, func(token string) error {
		_, err := g.deps.API.UpdateMonitor(ctx, token, in)
		return err
	})
}

func (g *Gateway) DeleteMonitor(ctx context.Context, id int64) error {
	return g.remove(ctx, "delete_monitor", "Delete this monitor and all of its checks?", "Monitor deleted", func(token string) error {
		return g.deps.API.DeleteMonitor(ctx, token, id)
	})
}

func (g *Gateway) AddIncident(ctx context.Context, in model.IncidentInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = model.IncidentInvestigating
	}
	return g.mutate(ctx, "create_incident", "Incident created", in, func(token string) error {
		_, err := g.deps.API.CreateIncident(ctx, token, in)
		return err
	})
}

func (g *Gateway) DeleteIncident(ctx context.Context, id int64) error {
	return g.remove(ctx, "delete_incident", "Delete this incident?", "Incident deleted", func(token string) error {
		return g.deps.API.DeleteIncident(ctx, token, id)
	})
}

func (g *Gateway) AddWebhook(ctx context.Context, in model.WebhookInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	return g.mutate(ctx, "create_webhook", "Webhook added", in, func(token string) error {
		_, err := g.deps.API.CreateWebhook(ctx, token, in)
		return err
	})
}

func (g *Gateway) UpdateWebhook(ctx context.Context, id int64, in model.WebhookInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	return g.mutate(ctx, "update_webhook", "Webhook updated", in, func(token string) error {
		_, err := g.deps.API.UpdateWebhook(ctx, token, id, in)
		return err
	})
}

func (g *Gateway) DeleteWebhook(ctx context.Context, id int64) error {
	return g.remove(ctx, "delete_webhook", "Delete this webhook?", "Webhook deleted", func(token string) error {
		return g.deps.API.DeleteWebhook(ctx, token, id)
	})
}

// VerifyToken reports whether candidate is accepted by the server. It never
// touches the stored credential.
func (g *Gateway) VerifyToken(ctx context.Context, candidate string) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, nil
	}
	ok, err := g.deps.API.VerifyToken(ctx, candidate)
	if err != nil {
		g.deps.Logger.Warn("token verification failed", zap.Error(err))
		return false, err
	}
	return ok, nil
}

// Login stores candidate once the server accepts it.
func (g *Gateway) Login(ctx context.Context, candidate string) (bool, error) {
	ok, err := g.VerifyToken(ctx, candidate)
	if err != nil {
		g.deps.Notify.Error(err)
		return false, err
	}
	if !ok {
		g.deps.Notify.Warn("Invalid token")
		return false, nil
	}

	g.deps.Tokens.Set(strings.TrimSpace(candidate))
	g.deps.Notify.Success("Logged in")
	g.refresh(ctx, "login")
	return true, nil
}

func (g *Gateway) Logout(ctx context.Context) {
	g.deps.Tokens.Clear()
	g.deps.Notify.Info("Logged out")
	g.refresh(ctx, "logout")
}

func (g *Gateway) History(ctx context.Context, monitorID int64) ([]model.DailyStats, error) {
	days, err := g.deps.Sync.History(ctx, monitorID)
	if err != nil {
		g.deps.Notify.Error(err)
		return nil, err
	}
	return days, nil
}

func (g *Gateway) mutate(ctx context.Context, op, success string, in any, call func(token string) error) error {
	if err := g.check(in); err != nil {
		return g.fail(op, err)
	}
	return g.run(ctx, op, success, call)
}

// remove asks for confirmation first. A declined prompt is not a failure.
func (g *Gateway) remove(ctx context.Context, op, prompt, success string, call func(token string) error) error {
	if !g.deps.Confirm.Confirm(ctx, prompt) {
		metrics.ObserveMutation(op, "declined")
		g.deps.Logger.Debug("delete declined", zap.String("op", op))
		return nil
	}
	return g.run(ctx, op, success, call)
}

func (g *Gateway) run(ctx context.Context, op, success string, call func(token string) error) error {
	token, ok := g.deps.Tokens.Get()
	if !ok {
		return g.fail(op, fmt.Errorf("%w: %w", ErrNoCredential, apierr.FromStatus(op, http.StatusUnauthorized, "")))
	}

	if err := call(token); err != nil {
		return g.fail(op, err)
	}

	metrics.ObserveMutation(op, "success")
	g.refresh(ctx, op)
	g.deps.Notify.Success(success)
	return nil
}

func (g *Gateway) fail(op string, err error) error {
	metrics.ObserveMutation(op, "failure")
	g.deps.Notify.Error(err)
	return err
}

func (g *Gateway) refresh(ctx context.Context, op string) {
	if err := g.deps.Sync.Refresh(ctx); err != nil {
		g.deps.Logger.Debug("refresh after mutation failed", zap.String("op", op), zap.Error(err))
	}
}

func (g *Gateway) check(in any) error {
	err := g.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierr.Invalid("%s", err.Error())
	}
	return apierr.Invalid("%s", describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "http_url":
		return field + " must be an http or https URL"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func normalizeMonitor(in model.MonitorInput) model.MonitorInput {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	if in.Interval == 0 {
		in.Interval = 60
	}
	return in
}
