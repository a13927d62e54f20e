package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"cardquery/internal/config"
	"cardquery/internal/domain"
	"cardquery/internal/domain/models"
	"cardquery/internal/domain/services"
	"cardquery/internal/service/prompt"
	"cardquery/internal/service/resolver"
)

// convertService implements the ConvertService interface
type convertService struct {
	identities services.IdentityValidator
	limiter    services.QuotaLimiter
	catalog    services.CatalogProvider
	prompts    *prompt.Builder
	completer  services.Completer
	limit      int
	logger     *slog.Logger
}

// NewService creates the conversion orchestrator. candidateLimit <= 0 uses
// resolver.DefaultLimit.
func NewService(
	identities services.IdentityValidator,
	limiter services.QuotaLimiter,
	catalog services.CatalogProvider,
	prompts *prompt.Builder,
	completer services.Completer,
	candidateLimit int,
	logger *slog.Logger,
) services.ConvertService {
	return &convertService{
		identities: identities,
		limiter:    limiter,
		catalog:    catalog,
		prompts:    prompts,
		completer:  completer,
		limit:      candidateLimit,
		logger:     logger,
	}
}

// Convert runs one conversion. Identity is checked before quota, so a
// rejected identity never consumes a slot. Collaborator failures surface as
// *domain.UpstreamError and are not retried.
func (s *convertService) Convert(ctx context.Context, req *services.ConvertRequest) (*services.ConvertResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		return nil, &domain.UnauthorizedError{Message: "identity required"}
	}

	ok, err := s.identities.Validate(ctx, identity)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "validate identity", Err: err}
	}
	if !ok {
		return nil, &domain.ForbiddenError{Message: "invalid identity"}
	}

	decision, err := s.limiter.Admit(identity)
	if err != nil {
		return nil, &domain.UnauthorizedError{Message: err.Error()}
	}
	if !decision.Allowed {
		return nil, &domain.QuotaExceededError{Limit: decision.Limit, ResetAt: decision.ResetAt}
	}

	instructions, codes, err := s.instructions(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	text, err := s.completer.Complete(ctx, instructions, req.Query)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "completion", Err: err}
	}

	syntax := strings.TrimSpace(text)
	s.logger.Debug("query converted",
		"codes", codes,
		"remaining", decision.Remaining,
		"provider", s.completer.Name(),
	)

	return &services.ConvertResult{
		Syntax: syntax,
		Quota:  decision,
		Codes:  codes,
	}, nil
}

// instructions builds the model instructions and reports which set codes the
// directive names. An explicit code skips the catalog entirely.
func (s *convertService) instructions(ctx context.Context, query string) (string, []string, error) {
	if code, ok := resolver.ExtractExplicitCode(query); ok {
		out, err := s.prompts.Build(nil, code)
		if err != nil {
			return "", nil, fmt.Errorf("build instructions: %w", err)
		}
		return out, []string{code}, nil
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return "", nil, &domain.UpstreamError{Op: "catalog", Err: err}
	}

	cands := resolver.Resolve(query, catalog, s.limit)
	out, err := s.prompts.Build(cands, "")
	if err != nil {
		return "", nil, fmt.Errorf("build instructions: %w", err)
	}
	return out, candidateCodes(cands), nil
}

func candidateCodes(cands []models.Candidate) []string {
	codes := make([]string, len(cands))
	for i, c := range cands {
		codes[i] = c.Set.Code
	}
	return codes
}

func (s *convertService) validateRequest(req *services.ConvertRequest) error {
	if req == nil {
		return errors.New("request body required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Query,
			validation.Required.Error("query required"),
			validation.By(notBlank("query required")),
			validation.RuneLength(0, config.MaxQueryLength),
		),
		validation.Field(&req.Identity,
			validation.RuneLength(0, config.MaxIdentityLength),
		),
	)
}

func notBlank(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}
