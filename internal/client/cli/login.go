package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/finbroker/internal/common"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a *App) login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email:", os.Stdout)
	if err != nil {
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	var resp loginResponse
	req := loginRequest{Email: email, Password: string(password)}
	if err := a.gateway.PostJSON(ctx, "/auth/login", req, &resp); err != nil {
		return err
	}

	if err := a.session.SetToken(ctx, resp.Token); err != nil {
		return err
	}

	fmt.Println("Logged in.")
	return nil
}

func (a *App) logout(ctx context.Context) {
	a.stopWatcher()
	if err := a.session.Clear(ctx); err != nil {
		log.Printf("error clearing session: %s", err.Error())
		return
	}
	a.cache.Purge()
	fmt.Println("Logged out.")
}

func (a *App) whoami() {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in.")
		return
	}
	claims, err := a.session.Claims()
	if err != nil {
		log.Printf("error reading session claims: %s", err.Error())
		return
	}
	fmt.Printf("User:  %s\n", claims.Email)
	fmt.Printf("Role:  %s\n", claims.Role)
	if claims.ExpiresAt != nil {
		fmt.Printf("Until: %s\n", claims.ExpiresAt.Time)
	}
}
