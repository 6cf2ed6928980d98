// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/kvstored/fault"
)

// Limit - take one token
//
// a request that would wait longer than wait is refused and its
// token returned; zero wait means no bound
func Limit(limiter *rate.Limiter, wait time.Duration) error {
	return reserve(limiter, 1, wait)
}

// LimitValue - take one token per unit bytes of a value
//
// an empty value, or one costing more than maximumCount tokens,
// still takes one token and gives fault.InvalidValueLength
func LimitValue(limiter *rate.Limiter, length int, unit int, maximumCount int, wait time.Duration) error {
	count := 1 + length/unit
	if length <= 0 || count > maximumCount {
		if err := reserve(limiter, 1, wait); nil != err {
			return err
		}
		return fault.InvalidValueLength
	}
	return reserve(limiter, count, wait)
}

func reserve(limiter *rate.Limiter, count int, wait time.Duration) error {
	r := limiter.ReserveN(time.Now(), count)
	if !r.OK() {
		return fault.RateLimiting
	}
	delay := r.Delay()
	if wait > 0 && delay > wait {
		r.Cancel()
		return fault.RateLimiting
	}
	time.Sleep(delay)
	return nil
}
