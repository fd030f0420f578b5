// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("PUT", "/api/v1/crates/new", "200"))
	RecordAPIRequest("PUT", "/api/v1/crates/new", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("PUT", "/api/v1/crates/new", "200"))
	assert.Equal(t, before+1, after)
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(APIActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(APIActiveRequests))
}

func TestRecordPublish(t *testing.T) {
	before := testutil.ToFloat64(PublishAttemptsTotal.WithLabelValues("new_crate", "ok"))
	RecordPublish("new_crate", "ok", 50*time.Millisecond)
	after := testutil.ToFloat64(PublishAttemptsTotal.WithLabelValues("new_crate", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordDownload(t *testing.T) {
	before := testutil.ToFloat64(DownloadAttemptsTotal.WithLabelValues("ok"))
	RecordDownload("ok")
	after := testutil.ToFloat64(DownloadAttemptsTotal.WithLabelValues("ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordGitCommitStep(t *testing.T) {
	beforeErrs := testutil.ToFloat64(GitCommitErrors.WithLabelValues("commit"))
	RecordGitCommitStep("commit", 5*time.Millisecond, nil)
	assert.Equal(t, beforeErrs, testutil.ToFloat64(GitCommitErrors.WithLabelValues("commit")))

	RecordGitCommitStep("commit", 5*time.Millisecond, assertError{})
	assert.Equal(t, beforeErrs+1, testutil.ToFloat64(GitCommitErrors.WithLabelValues("commit")))
}

func TestRecordDBTransaction(t *testing.T) {
	RecordDBTransaction(true, 2*time.Millisecond)
	RecordDBTransaction(false, 2*time.Millisecond)
}

func TestRecordDBQueryError(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("add_version"))
	RecordDBQueryError("add_version")
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("add_version"))
	assert.Equal(t, before+1, after)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
