package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rvalero/motoparts-scraper/internal/driver"
	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/selector"
)

// The site's root selector only ever offers these two vehicle types.
var vehicleTypes = []driver.Option{
	{Value: "3", Text: "Moto"},
	{Value: "4", Text: "Scooter"},
}

// Enumerator walks the full type/brand/displacement/model tree once and
// emits one task per leaf. The form does not reliably keep ancestor
// selections across sibling iterations, so every ancestor is re-asserted
// before each child enumeration.
type Enumerator struct {
	engine *selector.Engine
	logger *slog.Logger
}

func NewEnumerator(engine *selector.Engine) *Enumerator {
	return &Enumerator{
		engine: engine,
		logger: slog.Default().With("component", "enumerator"),
	}
}

// Enumerate performs the exhaustive walk. A failed branch is logged and
// skipped; only a landing page that never comes up fails the whole walk.
func (e *Enumerator) Enumerate(ctx context.Context) ([]models.Task, error) {
	e.logger.Info("enumerating task tree")

	if err := e.engine.ResetForm(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize landing page: %w", err)
	}

	var tasks []models.Task
	for _, vt := range vehicleTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Info("processing vehicle type", "type", vt.Text)

		if err := e.engine.ResetForm(ctx); err != nil {
			e.logger.Error("failed to reset form for vehicle type", "type", vt.Text, "error", err)
			continue
		}
		if err := e.engine.SelectValidated(ctx, SelVehicleType, vt.Value, SelBrand, "vehicle type"); err != nil {
			e.logger.Error("failed to select vehicle type", "type", vt.Text, "error", err)
			continue
		}

		brands, err := e.engine.ValidOptions(ctx, SelBrand)
		if err != nil {
			e.logger.Error("no brands for vehicle type", "type", vt.Text, "error", err)
			continue
		}

		for bi, brand := range brands {
			e.logger.Info("processing brand",
				"type", vt.Text, "brand", brand.Text, "progress", fmt.Sprintf("%d/%d", bi+1, len(brands)))

			branchTasks, err := e.enumerateBrand(ctx, vt, brand)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				e.logger.Error("brand branch failed, skipping",
					"type", vt.Text, "brand", brand.Text, "error", err)
				continue
			}
			tasks = append(tasks, branchTasks...)
		}
	}

	e.logger.Info("enumeration complete", "tasks", len(tasks))
	return tasks, nil
}

func (e *Enumerator) enumerateBrand(ctx context.Context, vt, brand driver.Option) ([]models.Task, error) {
	// Re-assert the ancestor before reading children.
	if err := e.engine.SelectValidated(ctx, SelVehicleType, vt.Value, SelBrand, "vehicle type"); err != nil {
		return nil, err
	}
	if err := e.engine.SelectValidated(ctx, SelBrand, brand.Value, SelDisplacement, "brand"); err != nil {
		return nil, err
	}

	displacements, err := e.engine.ValidOptions(ctx, SelDisplacement)
	if err != nil {
		return nil, fmt.Errorf("no displacements for brand %s: %w", brand.Text, err)
	}

	var tasks []models.Task
	for di, disp := range displacements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Info("processing displacement",
			"brand", brand.Text, "displacement", disp.Text,
			"progress", fmt.Sprintf("%d/%d", di+1, len(displacements)))

		modelOpts, err := e.enumerateDisplacement(ctx, vt, brand, disp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			e.logger.Warn("displacement branch failed, skipping",
				"brand", brand.Text, "displacement", disp.Text, "error", err)
			continue
		}

		e.logger.Info("models found",
			"brand", brand.Text, "displacement", disp.Text, "count", len(modelOpts))
		for _, model := range modelOpts {
			tasks = append(tasks, models.Task{
				TypeValue:         vt.Value,
				TypeLabel:         vt.Text,
				BrandValue:        brand.Value,
				BrandLabel:        brand.Text,
				DisplacementValue: disp.Value,
				DisplacementLabel: disp.Text,
				ModelValue:        model.Value,
				ModelLabel:        model.Text,
			})
		}
	}

	return tasks, nil
}

func (e *Enumerator) enumerateDisplacement(ctx context.Context, vt, brand, disp driver.Option) ([]driver.Option, error) {
	if err := e.engine.SelectValidated(ctx, SelVehicleType, vt.Value, SelBrand, "vehicle type"); err != nil {
		return nil, err
	}
	if err := e.engine.SelectValidated(ctx, SelBrand, brand.Value, SelDisplacement, "brand"); err != nil {
		return nil, err
	}
	if err := e.engine.SelectValidated(ctx, SelDisplacement, disp.Value, SelModel, "displacement"); err != nil {
		return nil, err
	}

	return e.engine.ValidOptions(ctx, SelModel)
}
