package handler

import (
	"go.uber.org/zap"

	"crewboard/backend/internal/service"
	"crewboard/backend/pkg/feed"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Assignment *AssignmentHandler
	Command    *CommandHandler
	Occupancy  *OccupancyHandler
	Feed       *FeedHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, sub feed.Subscriber, logger *zap.Logger) *Handler {
	return &Handler{
		Assignment: NewAssignmentHandler(svc.TeamAssignment),
		Command:    NewCommandHandler(svc.Command),
		Occupancy:  NewOccupancyHandler(svc.Occupancy),
		Feed:       NewFeedHandler(sub, logger),
	}
}
