package userui

import (
	"errors"
	"net/http"
	"strings"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
	"hiddenplaces/internal/service"
)

type loginForm struct {
	Email    string
	Remember bool
	Next     string
}

func (a *app) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if reqctx.From(r.Context()).LoggedIn() {
		http.Redirect(w, r, service.SafeRedirect(next, r.Host, "/"), http.StatusFound)
		return
	}
	a.render(w, r, http.StatusOK, "login", viewData{Title: "Log in", Data: loginForm{Next: next}})
}

func (a *app) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, "login", viewData{Title: "Log in", Error: "Invalid form."})
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Remember: formBool(r, "remember"),
		Next:     r.FormValue("next"),
	}
	v := viewData{Title: "Log in", Data: form}

	out, err := a.authSvc.Login(r.Context(), service.LoginAttempt{
		Email:     form.Email,
		Password:  r.FormValue("password"),
		Remember:  form.Remember,
		IP:        reqctx.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		var banErr *domain.BanError
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			v.Error = "Too many login attempts. Try again in a few minutes."
			a.render(w, r, http.StatusTooManyRequests, "login", v)
		case errors.As(err, &banErr):
			v.Error = banErr.Error()
			a.render(w, r, http.StatusForbidden, "login", v)
		case errors.Is(err, domain.ErrUserNotActive):
			v.Error = "Your account is not active."
			a.render(w, r, http.StatusForbidden, "login", v)
		case errors.Is(err, domain.ErrInvalidCredentials):
			v.Error = "Invalid email or password."
			a.render(w, r, http.StatusUnauthorized, "login", v)
		default:
			a.logger.Error("userui: login failed", "err", err)
			v.Error = "Login failed. Please try again later."
			a.render(w, r, http.StatusInternalServerError, "login", v)
		}
		return
	}

	auth.SetSessionCookie(w, a.cookieCodec.EncodeSessionID(out.SessionID), out.CookieTTL, a.cookieSecure)
	http.Redirect(w, r, service.SafeRedirect(form.Next, r.Host, "/"), http.StatusFound)
}

func (a *app) handleLogoutPost(w http.ResponseWriter, r *http.Request) {
	id := reqctx.From(r.Context())
	if err := a.authSvc.Logout(r.Context(), id.SessionID); err != nil {
		a.logger.Warn("userui: logout failed", "err", err)
	}
	auth.ClearSessionCookie(w, a.cookieSecure)
	redirectNotice(w, r, "/user/login", "logged_out")
}

type registerForm struct {
	Token     string
	FirstName string
	LastName  string
	Email     string
	Rules     domain.Page
}

func (a *app) rules(r *http.Request) domain.Page {
	if a.pageSvc == nil {
		return domain.Page{}
	}
	p, err := a.pageSvc.Get(r.Context(), domain.PageRules)
	if err != nil {
		a.logger.Warn("userui: load rules failed", "err", err)
	}
	return p
}

func (a *app) invalidLink(w http.ResponseWriter, r *http.Request) {
	a.renderError(w, r, http.StatusNotFound, "Invalid link", "The link is invalid or has expired.")
}

func (a *app) handleRegisterGet(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	inv, err := a.inviteSvc.CheckToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationInvalid) {
			a.invalidLink(w, r)
			return
		}
		a.fail(w, r, err)
		return
	}
	first, last, _ := strings.Cut(inv.Name, " ")
	a.render(w, r, http.StatusOK, "register", viewData{Title: "Registration", Data: registerForm{
		Token:     token,
		FirstName: first,
		LastName:  last,
		Email:     inv.Email,
		Rules:     a.rules(r),
	}})
}

func (a *app) handleRegisterPost(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := r.ParseForm(); err != nil {
		a.renderError(w, r, http.StatusBadRequest, "Invalid request", "Invalid form.")
		return
	}
	in := service.RegisterInput{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Password2: r.FormValue("password2"),
	}
	if _, err := a.inviteSvc.Register(r.Context(), token, in); err != nil {
		if errors.Is(err, domain.ErrInvitationInvalid) {
			a.invalidLink(w, r)
			return
		}
		a.formError(w, r, err, "register", viewData{Title: "Registration", Data: registerForm{
			Token:     token,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Rules:     a.rules(r),
		}})
		return
	}
	redirectNotice(w, r, "/user/login", "registered")
}

func (a *app) handleForgottenGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "forgotten", viewData{Title: "Forgotten password"})
}

func (a *app) handleForgottenPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, "forgotten", viewData{Title: "Forgotten password", Error: "Invalid form."})
		return
	}
	addr := strings.TrimSpace(r.FormValue("email"))
	if err := a.resetSvc.RequestReset(r.Context(), addr, reqctx.ClientIP(r)); err != nil {
		v := viewData{Title: "Forgotten password", Data: addr}
		if errors.Is(err, domain.ErrRateLimited) {
			v.Error = "Too many requests. Try again later."
			a.render(w, r, http.StatusTooManyRequests, "forgotten", v)
			return
		}
		a.formError(w, r, err, "forgotten", v)
		return
	}
	redirectNotice(w, r, "/user/login", "reset_sent")
}

func (a *app) handleResetGet(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if _, err := a.resetSvc.CheckToken(r.Context(), token); err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			a.invalidLink(w, r)
			return
		}
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "reset", viewData{Title: "New password", Data: token})
}

func (a *app) handleResetPost(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, "reset", viewData{Title: "New password", Data: token, Error: "Invalid form."})
		return
	}
	err := a.resetSvc.ResetPassword(r.Context(), token, r.FormValue("password"), r.FormValue("password2"))
	if err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			a.invalidLink(w, r)
			return
		}
		a.formError(w, r, err, "reset", viewData{Title: "New password", Data: token})
		return
	}
	redirectNotice(w, r, "/user/login", "password_reset")
}

func (a *app) handleChangeEmailConfirm(w http.ResponseWriter, r *http.Request) {
	if _, err := a.resetSvc.ConfirmEmailChange(r.Context(), r.PathValue("token")); err != nil {
		if errors.Is(err, domain.ErrEmailTokenInvalid) {
			a.invalidLink(w, r)
			return
		}
		a.fail(w, r, err)
		return
	}
	target := "/user/login"
	if reqctx.From(r.Context()).LoggedIn() {
		target = "/user/profile"
	}
	redirectNotice(w, r, target, "email_changed")
}
