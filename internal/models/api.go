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

package models

import (
	"encoding/json"
	"time"
)

// OracleEventRequest is the body of POST /oracle-events
type OracleEventRequest struct {
	EventType string                 `json:"eventType"`
	EventData map[string]interface{} `json:"eventData"`
}

// OracleEventResponse is returned after an oracle event is ingested
type OracleEventResponse struct {
	Success         bool `json:"success"`
	PayoutTriggered bool `json:"payoutTriggered"`
}

// StartVerificationRequest is the body of POST /verification/start
type StartVerificationRequest struct {
	Address string          `json:"address"`
	Config  json.RawMessage `json:"config"`
}

// StartVerificationResponse carries the new session and where to send the user
type StartVerificationResponse struct {
	SessionId       string `json:"sessionId"`
	VerificationUrl string `json:"verificationUrl"`
}

// VerificationCallbackRequest is the body of POST /verification/callback
type VerificationCallbackRequest struct {
	SessionId  string          `json:"sessionId"`
	Proof      json.RawMessage `json:"proof"`
	Attributes json.RawMessage `json:"attributes"`
}

// VerificationStatus is returned by GET /verification/status
type VerificationStatus struct {
	Status     SessionStatus   `json:"status"`
	VerifiedAt *time.Time      `json:"verifiedAt,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// SuccessResponse is the generic acknowledgement body
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}
