package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/vertex/internal/construction"
	"github.com/annel0/vertex/internal/crafting"
	"github.com/annel0/vertex/internal/sim"
	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world"
	"github.com/annel0/vertex/internal/world/material"
)

// TileRequest запрос на установку клетки
type TileRequest struct {
	X        *int   `json:"x" binding:"required"`
	Y        *int   `json:"y" binding:"required"`
	Material string `json:"material" binding:"required"`
}

// TaskRequest запрос на задачу строительства
type TaskRequest struct {
	Kind     string `json:"kind" binding:"required"`
	X        *int   `json:"x" binding:"required"`
	Y        *int   `json:"y" binding:"required"`
	Material string `json:"material"`
}

// TileResponse клетка со статусом нагрузки
type TileResponse struct {
	world.Tile
	LoadRatio float64          `json:"load_ratio"`
	Status    world.LoadStatus `json:"status"`
}

// StabilityResponse состояние грунта
type StabilityResponse struct {
	FoundationCount  int     `json:"foundation_count"`
	TotalLoad        float64 `json:"total_load"`
	MaxSupport       float64 `json:"max_support"`
	Sinkhole         bool    `json:"sinkhole"`
	StabilityPercent float64 `json:"stability_percent"`
}

// statusFor сопоставляет ошибку симуляции HTTP-статусу
func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrOutOfBounds), errors.Is(err, sim.ErrUnknownMaterial):
		return http.StatusBadRequest
	case errors.Is(err, crafting.ErrUnknownRecipe):
		return http.StatusNotFound
	case errors.Is(err, construction.ErrCannotBuild), errors.Is(err, construction.ErrCannotDig),
		errors.Is(err, construction.ErrNoResources), errors.Is(err, crafting.ErrNoFacility),
		errors.Is(err, crafting.ErrInsufficientResources):
		return http.StatusConflict
	case errors.Is(err, construction.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, sim.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestServer) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: message})
}

// positionParam читает :x и :y из пути
func positionParam(c *gin.Context) (vec.Vec2, bool) {
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errX != nil || errY != nil {
		badRequest(c, "Координаты должны быть целыми числами")
		return vec.Vec2{}, false
	}
	return vec.Vec2{X: x, Y: y}, true
}

// handleGetTile возвращает клетку
func (rs *RestServer) handleGetTile(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	tile, found, err := rs.world.TileAt(c.Request.Context(), pos)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Клетка отсутствует: " + pos.String()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Клетка " + pos.String(),
		Data:    TileResponse{Tile: tile, LoadRatio: tile.LoadRatio(), Status: tile.LoadStatus()},
	})
}

// handlePlaceTile ставит материал. 409, если клетка занята или нет опоры.
func (rs *RestServer) handlePlaceTile(c *gin.Context) {
	var req TileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса: "+err.Error())
		return
	}
	m, err := material.Parse(req.Material)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	pos := vec.Vec2{X: *req.X, Y: *req.Y}
	placed, err := rs.world.Place(c.Request.Context(), pos, m)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !placed {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Нельзя поставить " + m.String() + " в " + pos.String(),
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Установлено " + m.String() + " в " + pos.String(),
		Data:    gin.H{"x": pos.X, "y": pos.Y, "material": m},
	})
}

// handleRemoveTile выкапывает клетку. 409 для воздуха и пустых позиций.
func (rs *RestServer) handleRemoveTile(c *gin.Context) {
	pos, ok := positionParam(c)
	if !ok {
		return
	}

	removed, err := rs.world.Remove(c.Request.Context(), pos)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: "Нечего удалять в " + pos.String()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Удалено в " + pos.String()})
}

// handleGetColumn столбец с нагрузками для визуализации
func (rs *RestServer) handleGetColumn(c *gin.Context) {
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		badRequest(c, "Координата x должна быть целым числом")
		return
	}

	cells, err := rs.world.Column(c.Request.Context(), x)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Столбец " + strconv.Itoa(x),
		Data:    gin.H{"x": x, "cells": cells},
	})
}

// handleStability устойчивость грунта
func (rs *RestServer) handleStability(c *gin.Context) {
	report, err := rs.world.Stability(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Устойчивость грунта",
		Data: StabilityResponse{
			FoundationCount:  report.FoundationCount,
			TotalLoad:        report.TotalLoad,
			MaxSupport:       report.MaxSupport,
			Sinkhole:         report.Sinkhole,
			StabilityPercent: report.StabilityPercent(),
		},
	})
}

// handleLastTick отчёт последнего тика
func (rs *RestServer) handleLastTick(c *gin.Context) {
	report, err := rs.world.LastReport(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Последний тик", Data: report})
}

// handleResources балансы инвентаря
func (rs *RestServer) handleResources(c *gin.Context) {
	balances, err := rs.world.Resources(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Ресурсы", Data: balances})
}

// handleGetTasks очередь строительства
func (rs *RestServer) handleGetTasks(c *gin.Context) {
	tasks, err := rs.world.Tasks(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Очередь строительства",
		Data:    gin.H{"tasks": tasks, "total": len(tasks)},
	})
}

// handleCreateTask ставит задачу build или dig
func (rs *RestServer) handleCreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса: "+err.Error())
		return
	}
	kind, err := construction.ParseKind(req.Kind)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	pos := vec.Vec2{X: *req.X, Y: *req.Y}
	var task construction.Task
	switch kind {
	case construction.KindBuild:
		m, parseErr := material.Parse(req.Material)
		if parseErr != nil {
			badRequest(c, parseErr.Error())
			return
		}
		task, err = rs.world.QueueBuild(c.Request.Context(), pos, m)
	case construction.KindDig:
		task, err = rs.world.QueueDig(c.Request.Context(), pos)
	}
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Задача поставлена в очередь", Data: task})
}

// handleGetCrafting мастерские и доступные рецепты
func (rs *RestServer) handleGetCrafting(c *gin.Context) {
	facilities, err := rs.world.Facilities(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}
	available, err := rs.world.AvailableRecipes(c.Request.Context())
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Крафт",
		Data:    gin.H{"facilities": facilities, "available": available},
	})
}

// handleStartCrafting начинает крафт рецепта
func (rs *RestServer) handleStartCrafting(c *gin.Context) {
	job, err := rs.world.StartCrafting(c.Request.Context(), c.Param("recipe"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Крафт начат", Data: job})
}

// handleJournal записи журнала: ?from=&to=&limit=
func (rs *RestServer) handleJournal(c *gin.Context) {
	if rs.journal == nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Журнал отключен"})
		return
	}

	from, errFrom := strconv.ParseUint(c.DefaultQuery("from", "0"), 10, 64)
	to, errTo := strconv.ParseUint(c.DefaultQuery("to", "0"), 10, 64)
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if errFrom != nil || errTo != nil || errLimit != nil {
		badRequest(c, "Параметры from, to, limit должны быть числами")
		return
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	entries, err := rs.journal.Range(c.Request.Context(), from, to, limit)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Журнал тиков",
		Data:    gin.H{"entries": entries, "total": len(entries)},
	})
}
