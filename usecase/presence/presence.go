package presence

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
	appLogger "github.com/fastygo/livechat/pkg/logger"
	"github.com/fastygo/livechat/repository"
	"github.com/fastygo/livechat/usecase"
)

// HeartbeatCommand keeps a commercial listed as online for the presence TTL.
type HeartbeatCommand struct {
	CompanyID    string `json:"company_id"`
	CommercialID string `json:"commercial_id"`
	Name         string `json:"name"`
}

type companyParams struct {
	CompanyID string `json:"company_id"`
}

type UseCase struct {
	repo   repository.PresenceRepository
	clock  usecase.Clock
	logger *zap.Logger
}

func New(repo repository.PresenceRepository, clock usecase.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = usecase.SystemClock
	}
	return &UseCase{repo: repo, clock: clock, logger: logger}
}

func (uc *UseCase) Heartbeat(ctx context.Context, cmd HeartbeatCommand) error {
	if strings.TrimSpace(cmd.CompanyID) == "" || strings.TrimSpace(cmd.CommercialID) == "" {
		return domain.ErrInvalidPayload.Detail("company_id and commercial_id are required")
	}
	err := uc.repo.SetOnline(ctx, cmd.CompanyID, repository.OnlineCommercial{
		ID:       cmd.CommercialID,
		Name:     cmd.Name,
		LastSeen: uc.clock(),
	})
	if err != nil {
		appLogger.WithRequestID(ctx, uc.logger).Error("presence heartbeat failed",
			zap.String("company_id", cmd.CompanyID),
			zap.String("commercial_id", cmd.CommercialID),
			zap.Error(err),
		)
		return domain.WrapError(domain.ErrCodeInternal, domain.KindPresenceUnavailable, "presence heartbeat", err)
	}
	return nil
}

func (uc *UseCase) GoOffline(ctx context.Context, companyID, commercialID string) error {
	if companyID == "" || commercialID == "" {
		return domain.ErrInvalidPayload.Detail("company_id and commercial_id are required")
	}
	if err := uc.repo.SetOffline(ctx, companyID, commercialID); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, domain.KindPresenceUnavailable, "presence offline", err)
	}
	return nil
}

func (uc *UseCase) Online(ctx context.Context, companyID string) ([]repository.OnlineCommercial, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidPayload.Detail("company_id is required")
	}
	online, err := uc.repo.OnlineCommercials(ctx, companyID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, domain.KindPresenceUnavailable, "list online commercials", err)
	}
	return online, nil
}

func (uc *UseCase) Register(d *usecase.Dispatcher) {
	d.RegisterCommand(usecase.CmdHeartbeat, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, err := usecase.Decode[HeartbeatCommand](payload)
		if err != nil {
			return nil, err
		}
		return nil, uc.Heartbeat(ctx, cmd)
	})
	d.RegisterCommand(usecase.CmdGoOffline, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, err := usecase.Decode[HeartbeatCommand](payload)
		if err != nil {
			return nil, err
		}
		return nil, uc.GoOffline(ctx, cmd.CompanyID, cmd.CommercialID)
	})
	d.RegisterQuery(usecase.QryOnlineCommercials, func(ctx context.Context, params interface{}) (interface{}, error) {
		p, err := usecase.Decode[companyParams](params)
		if err != nil {
			return nil, err
		}
		return uc.Online(ctx, p.CompanyID)
	})
}
