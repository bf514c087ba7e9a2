package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
	validator   *validator.CustomValidator
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, validator *validator.CustomValidator) *ChatHandler {
	return &ChatHandler{
		chatUsecase: chatUsecase,
		validator:   validator,
	}
}

// Chat asks the health assistant
// @Summary Chat with the health assistant
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Message and prior turns"
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	reply, err := h.chatUsecase.Chat(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyMessage), errors.Is(err, usecase.ErrMessageTooLong):
			response.BadRequest(w, err.Error())
		case errors.Is(err, usecase.ErrChatUnavailable):
			response.ServiceUnavailable(w, err.Error())
		case errors.Is(err, usecase.ErrChatFailed):
			response.BadGateway(w, err.Error())
		default:
			response.InternalServerError(w, "Failed to get a reply")
		}
		return
	}

	response.Success(w, http.StatusOK, "Reply generated successfully", reply)
}
