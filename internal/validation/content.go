package validation

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

const publishedPrefix = domain.FieldPublished + "_"

// ContentValidator validates content and media value sets.
type ContentValidator struct {
	desc       domain.IndexDescriptor
	protection driven.ProtectionService
	chain      chain
}

// NewContentValidator creates a validator for a content/media index.
func NewContentValidator(desc domain.IndexDescriptor, protection driven.ProtectionService) *ContentValidator {
	v := &ContentValidator{desc: desc, protection: protection}
	v.chain = chain{rules: []rule{
		itemTypeRule(desc.IncludeItemTypes, desc.ExcludeItemTypes),
		pathPresentRule,
		v.pathRule,
		v.publicationRule,
		v.protectionRule,
		fieldRule(desc.IncludeFields, desc.ExcludeFields),
	}}
	return v
}

// Validate runs the content rule chain.
func (v *ContentValidator) Validate(ctx context.Context, vs domain.ValueSet) (domain.ValidationResult, error) {
	return v.chain.validate(ctx, vs)
}

func (v *ContentValidator) pathRule(_ context.Context, s *state) (bool, error) {
	path, _ := s.vs.Fields.First(domain.FieldPath)

	if v.desc.ParentID != "" && !domain.PathContains(path, v.desc.ParentID) {
		return false, nil
	}

	if v.desc.ExcludeTrashed {
		bin := s.vs.Category.RecycleBinID()
		if bin != "" && domain.PathContains(path, bin) {
			// Trashed media stays in the index, demoted to Filtered.
			if s.vs.Category == domain.CategoryContent {
				return false, nil
			}
			s.filtered = true
		}
	}
	return true, nil
}

func (v *ContentValidator) publicationRule(_ context.Context, s *state) (bool, error) {
	if !v.desc.PublishedValuesOnly || s.vs.Category != domain.CategoryContent {
		return true, nil
	}

	if published, _ := s.vs.Fields.First(domain.FieldPublished); published != domain.TokenYes {
		return false, nil
	}

	if varies, _ := s.vs.Fields.First(domain.FieldVariesByCulture); varies != domain.TokenYes {
		return true, nil
	}

	for _, name := range s.vs.Fields.NamesWithPrefixFold(publishedPrefix) {
		if token, _ := s.vs.Fields.First(name); token == domain.TokenYes {
			continue
		}
		culture := name[len(publishedPrefix):]
		for _, field := range s.vs.Fields.NamesWithSuffixFold("_" + culture) {
			s.vs.Fields.Delete(field)
			s.filtered = true
		}
	}
	return true, nil
}

func (v *ContentValidator) protectionRule(ctx context.Context, s *state) (bool, error) {
	if !v.desc.ExcludeProtected || v.protection == nil || s.vs.Category != domain.CategoryContent {
		return true, nil
	}

	path, _ := s.vs.Fields.First(domain.FieldPath)
	_, protected, err := v.protection.IsProtected(ctx, path)
	if err != nil {
		return false, fmt.Errorf("protection lookup %s: %w", s.vs, err)
	}
	if protected {
		s.excluded = true
	}
	return true, nil
}

// MemberValidator validates member value sets. Only the item type, path
// presence and field rules apply.
type MemberValidator struct {
	chain chain
}

// NewMemberValidator creates a validator for a member index.
func NewMemberValidator(desc domain.IndexDescriptor) *MemberValidator {
	return &MemberValidator{chain: chain{rules: []rule{
		itemTypeRule(desc.IncludeItemTypes, desc.ExcludeItemTypes),
		pathPresentRule,
		fieldRule(desc.IncludeFields, desc.ExcludeFields),
	}}}
}

// Validate runs the member rule chain.
func (v *MemberValidator) Validate(ctx context.Context, vs domain.ValueSet) (domain.ValidationResult, error) {
	return v.chain.validate(ctx, vs)
}
