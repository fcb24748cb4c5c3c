package siteforge

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func (a *App) handleLoginForm(c echo.Context) error {
	if IsAuthenticated(c) {
		return c.Redirect(http.StatusSeeOther, "/files/")
	}
	return Render(c, a.Views.Login(false, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}

	domain := strings.ToLower(strings.TrimSpace(c.FormValue("domain")))
	password := c.FormValue("password")

	hash, err := a.Credentials.PasswordHash(c.Request().Context(), domain)
	if err != nil && !errors.Is(err, ErrNoCredential) {
		return err
	}
	// An unknown domain takes the same failure path as a wrong password.
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		a.loginLimiter.Record(c.RealIP())
		return Render(c, a.Views.Login(true, CsrfToken(c)))
	}

	if err := setAdminSession(c, domain); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/files/")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (a *App) handleChangePasswordForm(c echo.Context) error {
	return Render(c, a.Views.ChangePassword(SessionDomain(c), "", "", CsrfToken(c)))
}

func (a *App) handleChangePassword(c echo.Context) error {
	domain := SessionDomain(c)
	current := c.FormValue("current_password")
	newPassword := c.FormValue("new_password")
	confirm := c.FormValue("confirm_password")

	fail := func(msg string) error {
		return Render(c, a.Views.ChangePassword(domain, msg, "", CsrfToken(c)))
	}

	if current == "" || newPassword == "" || confirm == "" {
		return fail("All fields are required")
	}
	if newPassword != confirm {
		return fail("New passwords do not match")
	}
	if len(newPassword) < 8 {
		return fail("Password must be at least 8 characters")
	}

	ctx := c.Request().Context()
	hash, err := a.Credentials.PasswordHash(ctx, domain)
	if err != nil && !errors.Is(err, ErrNoCredential) {
		return err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return fail("Current password is incorrect")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := a.Credentials.SetPasswordHash(ctx, domain, string(newHash)); err != nil {
		return fail("Failed to update password: " + err.Error())
	}

	return Render(c, a.Views.ChangePassword(domain, "", "Password changed successfully", CsrfToken(c)))
}
