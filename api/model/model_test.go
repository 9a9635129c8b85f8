/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateCreateListing(t *testing.T) {
	valid := CreateListing{
		OwnerID:     "usr_s",
		Title:       "Road bike",
		AskingPrice: decimal.RequireFromString("300"),
	}
	assert.NoError(t, valid.ValidateCreateListing())

	missingTitle := CreateListing{OwnerID: "usr_s", AskingPrice: decimal.RequireFromString("300")}
	assert.Error(t, missingTitle.ValidateCreateListing())

	zeroPrice := CreateListing{OwnerID: "usr_s", Title: "Road bike"}
	assert.Error(t, zeroPrice.ValidateCreateListing())
}

func TestValidateCreateOffer(t *testing.T) {
	valid := CreateOffer{
		ListingID: "lst_1",
		BidderID:  "usr_1",
		Amount:    decimal.RequireFromString("150"),
	}
	assert.NoError(t, valid.ValidateCreateOffer())

	negative := CreateOffer{ListingID: "lst_1", BidderID: "usr_1", Amount: decimal.RequireFromString("-5")}
	assert.Error(t, negative.ValidateCreateOffer())
}

func TestChangesRequestWatermarks(t *testing.T) {
	req := ChangesRequest{
		"offers":   "2026-01-02T15:04:05Z",
		"listings": "",
		"sellers":  "2026-01-02T15:04:05Z",
	}

	watermarks, err := req.Watermarks()
	assert.NoError(t, err)
	assert.Len(t, watermarks, 2)

	expected, _ := time.Parse(time.RFC3339, "2026-01-02T15:04:05Z")
	assert.True(t, watermarks["offers"].Equal(expected))
	assert.True(t, watermarks["listings"].IsZero())

	_, tracked := watermarks["sellers"]
	assert.False(t, tracked)
}

func TestChangesRequestWatermarks_Malformed(t *testing.T) {
	req := ChangesRequest{"offers": "last tuesday"}
	_, err := req.Watermarks()
	assert.Error(t, err)
}
