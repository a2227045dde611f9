package validation

import (
	"context"
	"slices"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Validator validates value sets for one index.
type Validator interface {
	// Validate returns the admission result for vs. The input is never
	// mutated; Filtered results carry a modified copy.
	Validate(ctx context.Context, vs domain.ValueSet) (domain.ValidationResult, error)
}

// state is the working copy a rule chain operates on.
type state struct {
	vs       domain.ValueSet
	filtered bool
	excluded bool
}

// rule inspects or mutates the working copy. Returning false stops the
// chain with a Failed result.
type rule func(ctx context.Context, s *state) (bool, error)

type chain struct {
	rules []rule
}

func (c chain) validate(ctx context.Context, vs domain.ValueSet) (domain.ValidationResult, error) {
	s := &state{vs: vs.Clone()}
	for _, r := range c.rules {
		ok, err := r(ctx, s)
		if err != nil {
			return domain.ValidationResult{}, err
		}
		if !ok {
			return domain.Failed(vs), nil
		}
		if s.excluded {
			return domain.Excluded(), nil
		}
	}
	if s.filtered {
		return domain.Filtered(s.vs), nil
	}
	return domain.Valid(s.vs), nil
}

// For returns the validator matching the descriptor's categories.
// protection may be nil when the index does not exclude protected content.
func For(desc domain.IndexDescriptor, protection driven.ProtectionService) Validator {
	if desc.Categories.IsMemberOnly() {
		return NewMemberValidator(desc)
	}
	return NewContentValidator(desc, protection)
}

// pathPresentRule fails value sets without a non-blank path.
func pathPresentRule(_ context.Context, s *state) (bool, error) {
	path, ok := s.vs.Fields.First(domain.FieldPath)
	return ok && strings.TrimSpace(path) != "", nil
}

// itemTypeRule applies the include and exclude type lists.
func itemTypeRule(include, exclude []string) rule {
	return func(_ context.Context, s *state) (bool, error) {
		itemType := s.vs.ItemType
		if len(include) > 0 {
			if itemType == "" || !slices.Contains(include, itemType) {
				return false, nil
			}
		}
		if itemType != "" && slices.Contains(exclude, itemType) {
			return false, nil
		}
		return true, nil
	}
}

// fieldRule narrows by the include list, then by the exclude list.
func fieldRule(include, exclude []string) rule {
	return func(_ context.Context, s *state) (bool, error) {
		if len(include) == 0 && len(exclude) == 0 {
			return true, nil
		}
		for _, name := range s.vs.Fields.Names() {
			drop := len(include) > 0 && !containsFold(include, name)
			if !drop && containsFold(exclude, name) {
				drop = true
			}
			if drop {
				s.vs.Fields.Delete(name)
				s.filtered = true
			}
		}
		return true, nil
	}
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
