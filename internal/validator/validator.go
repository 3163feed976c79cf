package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/qret/pkg/domain"
	playground "github.com/go-playground/validator/v10"
)

var validate = playground.New(playground.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags and reports every failing
// field in one readable error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e playground.FieldError) string {
	field := fieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the root struct name: "Config.Server.Addr" -> "server.addr".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// ValidateTree checks that every key a vignette waits for can be activated
// by some stage or actor of the screen. A vignette waiting for a key nobody
// sets can never be shown.
func ValidateTree(tree *domain.Tree) error {
	if tree == nil {
		return nil
	}

	producible := make(map[string]bool)
	for _, n := range tree.Nodes() {
		if n.Role == domain.RoleVignette {
			continue
		}
		for k := range n.Setting {
			producible[k] = true
		}
	}

	var problems []string
	for _, n := range tree.Nodes() {
		if n.Role != domain.RoleVignette {
			continue
		}
		for _, k := range n.Setting.Keys() {
			if !producible[k] {
				problems = append(problems, fmt.Sprintf("vignette '%s' waits for key '%s' that no stage or actor sets", n.ID, k))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
