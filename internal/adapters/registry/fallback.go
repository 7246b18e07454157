package registry

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/ports"
)

var plausibleCatmat = regexp.MustCompile(`^\d{6,9}$`)

// SnapshotSource is the read-only catalog consulted when the remote registry
// cannot be reached.
type SnapshotSource interface {
	Lookup(ctx context.Context, code string) (domain.RegistryRecord, bool, error)
}

// FallbackRegistry queries the remote CATMAT registry and degrades to the
// bundled snapshot, then to a soft-validated record, when it is unreachable.
type FallbackRegistry struct {
	remote   ports.Registry
	snapshot SnapshotSource
	logger   *zap.Logger
}

// NewFallbackRegistry accepts a nil remote (offline mode) or a nil snapshot.
func NewFallbackRegistry(remote ports.Registry, snapshot SnapshotSource, logger *zap.Logger) *FallbackRegistry {
	return &FallbackRegistry{remote: remote, snapshot: snapshot, logger: logging.OrNop(logger).Named("registry.fallback")}
}

func (f *FallbackRegistry) Lookup(ctx context.Context, code string) (domain.RegistryRecord, error) {
	code = strings.TrimSpace(code)
	var remoteErr error
	if f.remote != nil {
		rec, err := f.remote.Lookup(ctx, code)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrTransport) {
			return rec, err
		}
		remoteErr = err
		f.logger.Warn("registry.remote_unavailable", zap.String("code", code), zap.Error(err))
	}

	if f.snapshot != nil {
		rec, ok, err := f.snapshot.Lookup(ctx, code)
		switch {
		case err != nil:
			f.logger.Warn("registry.snapshot_failed", zap.Error(err))
		case ok:
			return rec, nil
		}
	}

	if plausibleCatmat.MatchString(code) {
		f.logger.Info("registry.soft_validation", zap.String("code", code))
		return SoftRecord(code), nil
	}
	if remoteErr != nil {
		return domain.RegistryRecord{Code: code, Source: "catmat"}, remoteErr
	}
	return domain.RegistryRecord{Code: code, Source: "snapshot"}, nil
}

// SoftRecord marks a syntactically plausible code that could not be checked.
// It never carries name, description or category.
func SoftRecord(code string) domain.RegistryRecord {
	return domain.RegistryRecord{
		Code:       code,
		Found:      true,
		Source:     "soft_validation",
		Validation: domain.ValidationSoft,
	}
}
