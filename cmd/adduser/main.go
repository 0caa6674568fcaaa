/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"

	"wallet-node-ledger-go/internal/common"
	"wallet-node-ledger-go/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	name := flag.String("name", "", "Full name of the user")
	email := flag.String("email", "", "Email address of the user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if err := validateName(*name); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*email); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	ctx := context.Background()

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if existing, err := dbService.GetUserByEmail(ctx, *email); err == nil {
		fmt.Printf("User already exists: %s (%s)\n", existing.Name, existing.Id)
		return
	}

	user, err := dbService.CreateUser(ctx, uuid.New().String(), *name, *email)
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Printf("User created: %s\n", user.Id)
	fmt.Printf("  name:  %s\n", user.Name)
	fmt.Printf("  email: %s\n", user.Email)
}
