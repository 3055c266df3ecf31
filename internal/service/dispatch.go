package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"tour-admin-server/internal/restclient"

	"github.com/go-playground/validator/v10"
)

// Action names the handler a form submission is routed to.
type Action string

const (
	ActionList             Action = "list"
	ActionGet              Action = "get"
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionToggleStatus     Action = "toggleStatus"
	ActionToggleActive     Action = "toggleActive"
	ActionUploadImage      Action = "uploadImage"
	ActionUploadImages     Action = "uploadImages"
	ActionDeleteImage      Action = "deleteImage"
	ActionUploadAvatar     Action = "uploadAvatar"
	ActionAssignRole       Action = "assignRole"
	ActionReorder          Action = "reorder"
	ActionAssignPermission Action = "assignPermissions"
	ActionRemovePermission Action = "removePermission"
)

const invalidActionMessage = "Invalid action"

// Dispatcher is implemented by every business-logic module.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload Payload, token string) Result
}

type ErrorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *ErrorBody) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Result is the local {success, data?, error?} convention handed to the
// HTTP layer.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func Ok(data interface{}) Result {
	return Result{Success: true, Data: data}
}

func Fail(status int, message string) Result {
	return Result{Error: &ErrorBody{Status: status, Message: message}}
}

func InvalidAction() Result {
	return Fail(http.StatusBadRequest, invalidActionMessage)
}

// Status is the HTTP status a handler should answer with.
func (r Result) Status() int {
	if r.Error != nil {
		return r.Error.Status
	}
	return http.StatusOK
}

// remoteError maps a client failure to an ErrorBody. Failures without an HTTP
// status get a gateway status matching what went wrong.
func remoteError(err *restclient.Error) *ErrorBody {
	if err == nil {
		return nil
	}

	status := err.Status
	if status == 0 {
		switch err.Kind {
		case restclient.KindTimeout:
			status = http.StatusGatewayTimeout
		case restclient.KindTransport, restclient.KindDecode:
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	}
	return &ErrorBody{Status: status, Message: err.Message}
}

func fromRemote(res *restclient.Result) Result {
	if !res.OK() {
		return Result{Error: remoteError(res.Error)}
	}
	return Ok(res.Data)
}

func required(fields map[string]string) *ErrorBody {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ErrorBody{Status: http.StatusBadRequest, Message: strings.Join(missing, ", ") + " is required"}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validationError turns validator output into a 400 body naming the first
// offending field.
func validationError(err error) *ErrorBody {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("%s is invalid", fe.Field())
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "email":
			msg = fmt.Sprintf("%s must be a valid email", fe.Field())
		case "min", "max", "len", "gte", "gt", "lte":
			msg = fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return &ErrorBody{Status: http.StatusBadRequest, Message: msg}
	}
	return &ErrorBody{Status: http.StatusBadRequest, Message: err.Error()}
}
