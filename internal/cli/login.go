package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/splitsync/internal/common"
)

func (a *App) Login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		fmt.Printf("Login unsuccessful: %v\n", err)
		return
	}

	if err := a.session.Save(ctx, token); err != nil {
		fmt.Printf("error saving session: %v\n", err)
		return
	}
	fmt.Println("Login successful")
}

func (a *App) Logout(ctx context.Context) {
	if err := a.session.Clear(ctx); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("Logged out")
}
