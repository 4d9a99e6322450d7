package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
)

// AccessService owns the live role configuration: owner, oracle, platform fee
// recipient and rate, and the admin roster. Role changes are owner-only and
// swap in a freshly validated access.Roles value.
type AccessService struct {
	mu     sync.RWMutex
	roles  access.Roles
	logger *logging.Logger
}

func NewAccessService(roles access.Roles, logger *logging.Logger) *AccessService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AccessService{
		roles:  roles,
		logger: logger,
	}
}

// Roles returns a snapshot of the current role configuration.
func (s *AccessService) Roles() access.Roles {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles
}

func (s *AccessService) IsOwner(caller access.Address) bool {
	return s.Roles().IsOwner(caller)
}

func (s *AccessService) IsOracle(caller access.Address) bool {
	return s.Roles().IsOracle(caller)
}

func (s *AccessService) IsActiveAdmin(caller access.Address) bool {
	return s.Roles().IsActiveAdmin(caller)
}

func (s *AccessService) TransferOwnership(ctx context.Context, caller, newOwner access.Address) error {
	return s.mutate(ctx, caller, "ownership transferred", "new_owner", newOwner, func(r access.Roles) (access.Roles, error) {
		return r.WithOwner(newOwner)
	})
}

func (s *AccessService) ChangeOracleAddress(ctx context.Context, caller, newOracle access.Address) error {
	return s.mutate(ctx, caller, "oracle address changed", "new_oracle", newOracle, func(r access.Roles) (access.Roles, error) {
		return r.WithOracle(newOracle)
	})
}

func (s *AccessService) ChangePlatformFeeAddress(ctx context.Context, caller, addr access.Address) error {
	return s.mutate(ctx, caller, "platform fee address changed", "new_address", addr, func(r access.Roles) (access.Roles, error) {
		return r.WithPlatformFeeAddress(addr)
	})
}

func (s *AccessService) ChangePlatformFeeRate(ctx context.Context, caller access.Address, rateBps uint32) error {
	return s.mutate(ctx, caller, "platform fee rate changed", "rate_bps", rateBps, func(r access.Roles) (access.Roles, error) {
		return r.WithPlatformFeeRate(rateBps)
	})
}

func (s *AccessService) AddAdmin(ctx context.Context, caller, admin access.Address) error {
	return s.mutate(ctx, caller, "admin added", "admin", admin, func(r access.Roles) (access.Roles, error) {
		return r.WithAdmin(admin)
	})
}

func (s *AccessService) RemoveAdmin(ctx context.Context, caller, admin access.Address) error {
	return s.mutate(ctx, caller, "admin removed", "admin", admin, func(r access.Roles) (access.Roles, error) {
		return r.WithoutAdmin(admin)
	})
}

// ActiveAdmins is owner-only: the roster is operational data, not public.
func (s *AccessService) ActiveAdmins(_ context.Context, caller access.Address) ([]access.Address, error) {
	roles := s.Roles()
	if !roles.IsOwner(caller) {
		return nil, fmt.Errorf("%w: caller is not the owner", ErrUnauthorized)
	}
	return roles.ActiveAdmins(), nil
}

func (s *AccessService) mutate(ctx context.Context, caller access.Address, logMsg, logKey string, logVal any, apply func(access.Roles) (access.Roles, error)) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccessService.mutate")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.IsOwner(caller) {
		return fmt.Errorf("%w: caller is not the owner", ErrUnauthorized)
	}

	next, err := apply(s.roles)
	if err != nil {
		if errors.Is(err, access.ErrZeroAddress) {
			return fmt.Errorf("%w: %v", ErrZeroAddress, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.roles = next

	s.logger.InfoContext(ctx, logMsg, "caller", caller, logKey, logVal)
	return nil
}
