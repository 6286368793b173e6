package handlers

import (
	"errors"
	"net/http"
	"strings"

	"banking_portal/internal/ledger"
	"banking_portal/internal/money"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// amountRequest carries a decimal amount as a string to keep precision.
type amountRequest struct {
	Amount string `json:"amount" binding:"required" example:"100.00"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("api_bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": fieldErrors(err)})
		return false
	}
	return true
}

// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      signupInput  true  "name, email, username, password, confirm"
// @Success      200    {object}  map[string]interface{}  "id"
// @Failure      400    {object}  map[string]interface{}
// @Failure      409    {object}  map[string]string
// @Router       /api/v1/auth/sign-up [post]
func (h *Handler) apiSignUp(c *gin.Context) {
	var input signupInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.Register(c.Request.Context(), service.RegisterParams{
		Name:     input.Name,
		Email:    input.Email,
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "username", input.Username, "err", err)
		}
		if errors.Is(err, service.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": msgUsernameTaken})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      loginInput  true  "username, password"
// @Success      200    {object}  map[string]string  "token"
// @Failure      400    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Router       /api/v1/auth/sign-in [post]
func (h *Handler) apiSignIn(c *gin.Context) {
	var input loginInput
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.GenerateToken(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		}
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      Account details
// @Tags         account
// @Produce      json
// @Success      200  {object}  map[string]string  "username, name, balance, currency"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/account [get]
// @Security     BearerAuth
func (h *Handler) apiAccount(c *gin.Context) {
	u, err := h.services.Ledger.Account(c.Request.Context(), c.GetString(ctxUsername))
	if err != nil {
		h.ledgerErrorJSON(c, "account", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": u.Username,
		"name":     u.Name,
		"email":    u.Email,
		"balance":  money.Format(u.Balance),
		"currency": h.opts.Currency,
	})
}

// @Summary      Deposit
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string         false  "Replays with the same key are rejected"
// @Param        input            body      amountRequest  true   "amount"
// @Success      200              {object}  map[string]string  "balance"
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Failure      422              {object}  map[string]string  "balance limit"
// @Router       /api/v1/account/deposit [post]
// @Security     BearerAuth
func (h *Handler) apiDeposit(c *gin.Context) {
	h.apiLedger(c, ledger.KindDeposit)
}

// @Summary      Withdraw
// @Description  Fails with 409 and the available balance when funds are insufficient.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string         false  "Replays with the same key are rejected"
// @Param        input            body      amountRequest  true   "amount"
// @Success      200              {object}  map[string]string  "balance"
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      409              {object}  map[string]string  "error, available"
// @Router       /api/v1/account/withdraw [post]
// @Security     BearerAuth
func (h *Handler) apiWithdraw(c *gin.Context) {
	h.apiLedger(c, ledger.KindWithdraw)
}

func (h *Handler) apiLedger(c *gin.Context, kind string) {
	var input amountRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	amount, err := money.Parse(input.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": amountMessage(err)})
		return
	}

	ctx := c.Request.Context()
	username := c.GetString(ctxUsername)
	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	var balance decimal.Decimal
	if kind == ledger.KindDeposit {
		balance, err = h.services.Ledger.Deposit(ctx, username, amount, key)
	} else {
		balance, err = h.services.Ledger.Withdraw(ctx, username, amount, key)
	}
	if err != nil {
		h.ledgerErrorJSON(c, strings.ToLower(kind), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":  money.Format(balance),
		"currency": h.opts.Currency,
	})
}

// ledgerErrorJSON maps ledger/service errors to status codes.
func (h *Handler) ledgerErrorJSON(c *gin.Context, op string, err error) {
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient funds",
			"available": money.Format(insufficient.Available),
		})
	case errors.Is(err, ledger.ErrBalanceLimit):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msgBalanceLimit})
	case errors.Is(err, service.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": msgAlreadyProcessed})
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgTryAgain})
	default:
		if h.log != nil {
			h.log.Errorw("ledger_"+op+"_failed", "username", c.GetString(ctxUsername), "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
