package application

import (
	"context"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	UpdateSettingsCommandName = "UpdateFareSettings"
	GetSettingsQueryName      = "GetFareSettings"
)

type UpdateSettingsData struct {
	Actor access.Actor
	Patch domain.SettingsPatch
}

type updateSettingsCommand struct {
	data UpdateSettingsData
}

func (c updateSettingsCommand) CommandName() string         { return UpdateSettingsCommandName }
func (c updateSettingsCommand) Payload() UpdateSettingsData { return c.data }

func NewUpdateSettingsCommand(data UpdateSettingsData) pkgDomain.Command[UpdateSettingsData] {
	return updateSettingsCommand{data: data}
}

type GetSettingsData struct {
	Actor access.Actor
}

type getSettingsQuery struct {
	data GetSettingsData
}

func (q getSettingsQuery) QueryName() string        { return GetSettingsQueryName }
func (q getSettingsQuery) Payload() GetSettingsData { return q.data }

func NewGetSettingsQuery(data GetSettingsData) pkgDomain.Query[GetSettingsData] {
	return getSettingsQuery{data: data}
}

type updateSettingsHandler struct {
	repository domain.SettingsRepository
	uow        pkgApp.UnitOfWork
	now        func() time.Time
	logger     pkgApp.AppLogger
}

func NewUpdateSettingsHandler(repo domain.SettingsRepository, uow pkgApp.UnitOfWork, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[UpdateSettingsData], UpdateSettingsData] {
	return &updateSettingsHandler{repository: repo, uow: uow, now: time.Now, logger: logger}
}

// Handle is open to superadmins only.
func (h *updateSettingsHandler) Handle(ctx context.Context, command pkgDomain.Command[UpdateSettingsData]) error {
	data := command.Payload()
	if err := access.AuthorizeRole(data.Actor, access.ActionUpdateFares); err != nil {
		return err
	}

	err := h.uow.WithinTx(ctx, func(ctx context.Context) error {
		current, err := h.repository.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		next, err := current.Apply(data.Patch, data.Actor.ID, h.now())
		if err != nil {
			return err
		}
		return h.repository.Save(ctx, next)
	})
	if err != nil {
		return err
	}

	pkgApp.LogInfo(ctx, h.logger, "fare settings updated", map[string]interface{}{"updated_by": data.Actor.ID})
	return nil
}

type getSettingsHandler struct {
	repository domain.SettingsRepository
}

func NewGetSettingsHandler(repo domain.SettingsRepository) pkgApp.QueryHandler[pkgDomain.Query[GetSettingsData], GetSettingsData, domain.Settings] {
	return &getSettingsHandler{repository: repo}
}

func (h *getSettingsHandler) Handle(ctx context.Context, query pkgDomain.Query[GetSettingsData]) (domain.Settings, error) {
	actor := query.Payload().Actor
	if err := access.AuthorizeRole(actor, access.ActionViewFares, access.RoleUser, access.RoleDriver, access.RoleVendor); err != nil {
		return domain.Settings{}, err
	}
	return h.repository.Get(ctx)
}
