package consolidate

import (
	"fmt"

	"precificador/internal/domain"
	"precificador/internal/textclean"
)

// DetectConflict flags a search result whose description mentions neither the
// registry category nor the registry name (case and accent insensitive). It is
// a containment heuristic that only catches obviously unrelated items.
func DetectConflict(rec domain.RegistryRecord, top *domain.SearchResult) *domain.ConflictReport {
	if top == nil || !rec.Authoritative() {
		return nil
	}
	if textclean.ContainsFold(top.RawDescription, rec.Category) || textclean.ContainsFold(top.RawDescription, rec.Name) {
		return nil
	}
	return &domain.ConflictReport{
		RegistryCategory:  rec.Category,
		RegistryName:      rec.Name,
		SearchDescription: top.RawDescription,
		Reason:            fmt.Sprintf("search result mentions neither category %q nor name %q", rec.Category, rec.Name),
	}
}
