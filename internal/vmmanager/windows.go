// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/utils/v4"
)

const (
	// windowsUsernameLength is the longest local account name Windows
	// accepts.
	windowsUsernameLength = 20
	// windowsComputerNameLength is the NetBIOS name limit.
	windowsComputerNameLength = 15
)

func randomIdentifier() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// windowsUsername returns a random administrator name.
func windowsUsername() string {
	return randomIdentifier()[:windowsUsernameLength]
}

// windowsComputerName returns a random computer name. Windows rejects
// computer names made only of digits.
func windowsComputerName() string {
	name := []byte(randomIdentifier()[:windowsComputerNameLength])
	if strings.Trim(string(name), "0123456789") == "" {
		name[0] = 'w'
	}
	return string(name)
}

// windowsPassword returns a random administrator password.
func windowsPassword() string {
	// We want at least one each of lower-alpha, upper-alpha, and digit.
	// Allocate 16 of each (randomly), and then the remaining characters
	// will be randomly chosen from the full set.
	validRunes := append([]rune{}, utils.LowerAlpha...)
	validRunes = append(validRunes, utils.Digits...)
	validRunes = append(validRunes, utils.UpperAlpha...)

	lowerAlpha := utils.RandomString(16, utils.LowerAlpha)
	upperAlpha := utils.RandomString(16, utils.UpperAlpha)
	digits := utils.RandomString(16, utils.Digits)
	mixed := utils.RandomString(16, validRunes)
	password := []rune(lowerAlpha + upperAlpha + digits + mixed)
	rand.Shuffle(len(password), func(i, j int) {
		password[i], password[j] = password[j], password[i]
	})
	return string(password)
}
