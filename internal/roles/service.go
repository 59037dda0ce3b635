package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/innkeep/innkeep/internal/platform/httpx"
	"github.com/innkeep/innkeep/internal/rbac"
)

var (
	// ErrRoleNotFound indicates an unknown role id.
	ErrRoleNotFound = fmt.Errorf("role %w", httpx.ErrNotFound)
	// ErrInvalidDraft indicates a draft that failed validation.
	ErrInvalidDraft = fmt.Errorf("role draft: %w", httpx.ErrValidation)
)

// ValidationError carries per-field messages for a rejected draft.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ErrInvalidDraft.Error() + ": " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDraft }

// RoleSource exposes the predefined roles. *rbac.Registry satisfies it.
type RoleSource interface {
	ListAll() []rbac.Role
	GetByID(id string) (rbac.Role, bool)
	Catalog() *rbac.Catalog
}

// Service handles role browsing and change proposals.
type Service struct {
	source   RoleSource
	logger   *slog.Logger
	validate *validator.Validate
	clock    func() time.Time
}

// NewService builds Service instance.
func NewService(source RoleSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	catalog := source.Catalog()
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
		_, ok := catalog.Lookup(fl.Field().String())
		return ok
	})
	return &Service{source: source, logger: logger, validate: v, clock: time.Now}
}

// Catalog returns the permission catalog roles are drawn from.
func (s *Service) Catalog() *rbac.Catalog {
	return s.source.Catalog()
}

// List returns every predefined role.
func (s *Service) List(_ context.Context) []rbac.Role {
	return s.source.ListAll()
}

// Get returns a role with its permission sheet.
func (s *Service) Get(_ context.Context, id string) (RoleDetail, error) {
	role, ok := s.source.GetByID(id)
	if !ok {
		return RoleDetail{}, ErrRoleNotFound
	}
	detail := RoleDetail{Role: role}
	for _, g := range s.Catalog().Groups() {
		group := GrantGroup{Module: g.Module, Title: g.Title}
		for _, p := range g.Permissions {
			group.Permissions = append(group.Permissions, GrantedPermission{Permission: p, Granted: role.Has(p.ID)})
		}
		detail.Groups = append(detail.Groups, group)
	}
	return detail, nil
}

// ProposeCreate validates a new role draft and logs the intended role.
func (s *Service) ProposeCreate(ctx context.Context, actor string, draft Draft) (Proposal, error) {
	if err := s.check(&draft); err != nil {
		return Proposal{}, err
	}
	p := Proposal{
		Action:     ActionCreate,
		Draft:      draft,
		Change:     Diff(nil, draft.Permissions),
		ProposedBy: actor,
		ProposedAt: s.clock().UTC(),
	}
	s.log(ctx, p)
	return p, nil
}

// ProposeEdit validates a draft for an existing role and logs the
// permissions it would add and remove.
func (s *Service) ProposeEdit(ctx context.Context, actor, id string, draft Draft) (Proposal, error) {
	role, ok := s.source.GetByID(id)
	if !ok {
		return Proposal{}, ErrRoleNotFound
	}
	if err := s.check(&draft); err != nil {
		return Proposal{}, err
	}
	p := Proposal{
		Action:     ActionEdit,
		RoleID:     role.ID,
		Draft:      draft,
		Change:     Diff(role.Permissions, draft.Permissions),
		ProposedBy: actor,
		ProposedAt: s.clock().UTC(),
	}
	s.log(ctx, p)
	return p, nil
}

func (s *Service) check(d *Draft) error {
	d.Normalize(s.Catalog())
	err := s.validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if strings.HasPrefix(field, "permissions[") {
			field = "permissions"
		}
		if _, done := fields[field]; done {
			continue
		}
		fields[field] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		return "Role name must be at least 2 characters."
	case "description":
		return "Description must be at least 10 characters."
	}
	if fe.Tag() == "permission" {
		return fmt.Sprintf("Unknown permission %q.", fe.Value())
	}
	return "You must select at least one permission."
}

func (s *Service) log(ctx context.Context, p Proposal) {
	s.logger.InfoContext(ctx, "role change proposed",
		slog.String("action", p.Action),
		slog.String("role_id", p.RoleID),
		slog.String("name", p.Draft.Name),
		slog.String("actor", p.ProposedBy),
		slog.Any("added", p.Change.Added),
		slog.Any("removed", p.Change.Removed),
	)
}
