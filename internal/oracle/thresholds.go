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

package oracle

import (
	"encoding/json"
	"strconv"
	"strings"

	"travel-cover-go/internal/models"
)

const (
	// FlightDelayThresholdMinutes must be strictly exceeded to trigger a payout
	FlightDelayThresholdMinutes = 120

	SeverityHigh           = "high"
	EmergencyLevelCritical = "critical"
)

// ShouldTriggerPayout applies the fixed per-event threshold to an event payload.
// Unrecognized event types and malformed payload fields never trigger.
func ShouldTriggerPayout(eventType models.EventType, eventData map[string]interface{}) bool {
	switch eventType {
	case models.EventTypeFlightDelay:
		minutes, ok := numberField(eventData, "delayMinutes")
		return ok && minutes > FlightDelayThresholdMinutes
	case models.EventTypeExtremeWeather:
		return stringField(eventData, "severity") == SeverityHigh
	case models.EventTypeHealthEmergency:
		return stringField(eventData, "emergencyLevel") == EmergencyLevelCritical
	default:
		return false
	}
}

// numberField reads a numeric field that may arrive as a JSON number or a
// numeric string.
func numberField(data map[string]interface{}, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}
