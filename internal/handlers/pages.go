package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"banking_portal/internal/ledger"
	"banking_portal/internal/models"
	"banking_portal/internal/money"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notices shown to the user.
const (
	msgRegistered       = "You are now registered and can log in"
	msgLoggedOut        = "You are now logged out"
	msgUserNotFound     = "Username not found"
	msgInvalidLogin     = "Invalid login"
	msgCredentialsEmpty = "Username and password are required"
	msgAlreadyProcessed = "This request was already processed"
	msgTryAgain         = "The account is busy, please try again"
	msgBalanceLimit     = "This deposit would exceed the maximum balance"
)

func (h *Handler) home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", pageData{})
}

func (h *Handler) signupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", pageData{Title: "Register"})
}

func (h *Handler) signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindWith(&input, binding.Form); err != nil {
		errs := fieldErrors(err)
		h.render(c, http.StatusBadRequest, "signup.html", pageData{
			Title:  "Register",
			Form:   formValues{Name: input.Name, Email: input.Email, Username: input.Username},
			Error:  errs[""],
			Errors: errs,
		})
		return
	}

	_, err := h.services.Register(c.Request.Context(), service.RegisterParams{
		Name:     input.Name,
		Email:    input.Email,
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUsername) {
			if h.log != nil {
				h.log.Infow("auth_sign_up_duplicate", "username", input.Username)
			}
			h.render(c, http.StatusConflict, "signup.html", pageData{
				Title:  "Register",
				Form:   formValues{Name: input.Name, Email: input.Email, Username: input.Username},
				Errors: map[string]string{"username": msgUsernameTaken},
			})
			return
		}
		h.renderError(c, "auth_sign_up_failed", err)
		return
	}

	if h.log != nil {
		h.log.Infow("auth_sign_up", "username", input.Username)
	}
	h.session(c).AddFlash(models.FlashSuccess, msgRegistered)
	h.redirect(c, "/login")
}

func (h *Handler) loginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", pageData{Title: "Login"})
}

func (h *Handler) login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindWith(&input, binding.Form); err != nil {
		h.render(c, http.StatusBadRequest, "login.html", pageData{
			Title: "Login",
			Form:  formValues{Username: input.Username},
			Error: msgCredentialsEmpty,
		})
		return
	}

	ctx := c.Request.Context()
	u, err := h.services.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			msg = msgUserNotFound
		case errors.Is(err, service.ErrInvalidPassword):
			msg = msgInvalidLogin
		default:
			h.renderError(c, "auth_login_failed", err)
			return
		}
		if h.log != nil {
			h.log.Infow("auth_login_rejected", "username", input.Username, "reason", msg)
		}
		h.render(c, http.StatusOK, "login.html", pageData{
			Title: "Login",
			Form:  formValues{Username: input.Username},
			Error: msg,
		})
		return
	}

	next, err := h.services.Sessions.Login(ctx, h.session(c), u)
	if err != nil {
		h.renderError(c, "session_login_failed", err)
		return
	}
	h.setSession(c, next)
	if h.log != nil {
		h.log.Infow("auth_login", "username", u.Username)
	}
	h.redirect(c, "/account")
}

func (h *Handler) logout(c *gin.Context) {
	st := h.session(c)
	if err := h.services.Sessions.Destroy(c.Request.Context(), st); err != nil && h.log != nil {
		h.log.Errorw("session_destroy_failed", "session_id", st.ID, "err", err)
	}
	if h.log != nil {
		h.log.Infow("auth_logout", "username", st.Username)
	}

	anon := h.services.Sessions.New()
	anon.AddFlash(models.FlashSuccess, msgLoggedOut)
	h.setSession(c, anon)
	h.redirect(c, "/login")
}

// account refreshes the cached balance from the store before rendering.
func (h *Handler) account(c *gin.Context) {
	st := h.session(c)
	u, ok := h.loadAccount(c, st)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "account.html", pageData{
		Title:   "Account",
		Name:    u.Name,
		Balance: money.Format(u.Balance),
	})
}

func (h *Handler) depositPage(c *gin.Context) {
	h.amountPage(c, http.StatusOK, "deposit.html", "Deposit", "", nil)
}

func (h *Handler) withdrawPage(c *gin.Context) {
	h.amountPage(c, http.StatusOK, "withdraw.html", "Withdraw", "", nil)
}

func (h *Handler) deposit(c *gin.Context) {
	h.postLedger(c, ledger.KindDeposit)
}

func (h *Handler) withdraw(c *gin.Context) {
	h.postLedger(c, ledger.KindWithdraw)
}

// amountPage renders the deposit or withdraw form with a fresh request id.
func (h *Handler) amountPage(c *gin.Context, status int, name, title, amount string, errs map[string]string) {
	st := h.session(c)
	u, ok := h.loadAccount(c, st)
	if !ok {
		return
	}
	h.render(c, status, name, pageData{
		Title:     title,
		Name:      u.Name,
		Balance:   money.Format(u.Balance),
		RequestID: uuid.NewString(),
		Amount:    amount,
		Errors:    errs,
	})
}

// postLedger handles a deposit or withdraw form post.
func (h *Handler) postLedger(c *gin.Context, kind string) {
	field, page, title := "deposit", "deposit.html", "Deposit"
	if kind == ledger.KindWithdraw {
		field, page, title = "withdraw", "withdraw.html", "Withdraw"
	}

	raw := c.PostForm(field)
	amount, err := money.Parse(raw)
	if err != nil {
		h.amountPage(c, http.StatusBadRequest, page, title, raw, map[string]string{field: amountMessage(err)})
		return
	}

	st := h.session(c)
	ctx := c.Request.Context()
	requestID := strings.TrimSpace(c.PostForm("request_id"))

	var balance decimal.Decimal
	if kind == ledger.KindDeposit {
		balance, err = h.services.Ledger.Deposit(ctx, st.Username, amount, requestID)
	} else {
		balance, err = h.services.Ledger.Withdraw(ctx, st.Username, amount, requestID)
	}

	var insufficient *ledger.InsufficientFundsError
	switch {
	case err == nil:
		st.CachedBalance = balance
		st.AddFlash(models.FlashSuccess, successMessage(kind, amount))
	case errors.As(err, &insufficient):
		st.CachedBalance = insufficient.Available
		st.AddFlash(models.FlashDanger, fmt.Sprintf("Insufficient funds %s %s", h.opts.Currency, money.Format(insufficient.Available)))
	case errors.Is(err, ledger.ErrBalanceLimit):
		st.AddFlash(models.FlashDanger, msgBalanceLimit)
	case errors.Is(err, service.ErrDuplicateRequest):
		st.AddFlash(models.FlashDanger, msgAlreadyProcessed)
	case errors.Is(err, service.ErrBusy):
		st.AddFlash(models.FlashDanger, msgTryAgain)
	case errors.Is(err, service.ErrAccountNotFound):
		h.dropSession(c, st)
		return
	default:
		h.renderError(c, "ledger_"+strings.ToLower(kind)+"_failed", err)
		return
	}
	h.redirect(c, "/account")
}

func successMessage(kind string, amount decimal.Decimal) string {
	if kind == ledger.KindWithdraw {
		return fmt.Sprintf("Withdrew %s successfully", money.Format(amount))
	}
	return fmt.Sprintf("Deposited %s successfully", money.Format(amount))
}

// loadAccount reads the authoritative user row and refreshes the cached
// balance. It writes the response itself when it returns false.
func (h *Handler) loadAccount(c *gin.Context, st *models.SessionState) (*models.User, bool) {
	u, err := h.services.Ledger.Account(c.Request.Context(), st.Username)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			h.dropSession(c, st)
			return nil, false
		}
		h.renderError(c, "account_load_failed", err)
		return nil, false
	}
	st.CachedBalance = u.Balance
	return u, true
}

// dropSession handles a session whose user no longer exists.
func (h *Handler) dropSession(c *gin.Context, st *models.SessionState) {
	_ = h.services.Sessions.Destroy(c.Request.Context(), st)
	anon := h.services.Sessions.New()
	anon.AddFlash(models.FlashDanger, msgUnauthorized)
	h.setSession(c, anon)
	h.redirect(c, "/login")
}
