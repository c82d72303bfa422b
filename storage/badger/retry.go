// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	conflictAttempts = 4
	conflictDelay    = 5 * time.Millisecond
)

// retryOnConflict runs op until it returns something other than
// badger.ErrConflict, at most maxAttempts times. The delay between
// attempts starts at baseDelay and doubles each time. Other errors are
// returned immediately.
func retryOnConflict(op func() error, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if !errors.Is(err, badger.ErrConflict) {
			if err == nil && attempt > 1 {
				logger.Debug("transaction succeeded after retry", "attempt", attempt)
			}
			return err
		}

		logger.Debug("transaction conflict, will retry", "attempt", attempt, "maxAttempts", maxAttempts)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}
