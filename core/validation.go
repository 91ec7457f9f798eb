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

package core

import (
	"fmt"
	"strings"
)

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - Text must not be blank
//   - End must not precede Start when both are present
//
// NOT validated (optional metadata):
//   - SourceID, Speaker, Time
//   - Vector
func ValidatePassage(p *Passage) error {
	if p == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyContent)
	}

	if p.Start != nil && p.End != nil && *p.End < *p.Start {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrInvalidTimeRange)
	}

	return nil
}

// ValidateCacheEntry validates a CacheEntry before it is persisted.
func ValidateCacheEntry(e *CacheEntry) error {
	if e == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidCacheEntry)
	}

	if e.Key == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCacheEntry, ErrEmptyCacheKey)
	}

	return nil
}
