// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thejerf/suture/v4"
)

const (
	supervisorFailureThreshold = 5.0
	supervisorFailureDecay     = 30.0
	supervisorFailureBackoff   = 15 * time.Second
	supervisorShutdownTimeout  = 10 * time.Second
)

// newSupervisor creates the root supervisor for long-running services.
func newSupervisor(name string) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook:        logSupervisorEvent,
		FailureThreshold: supervisorFailureThreshold,
		FailureDecay:     supervisorFailureDecay,
		FailureBackoff:   supervisorFailureBackoff,
		Timeout:          supervisorShutdownTimeout,
	})
}

func logSupervisorEvent(e suture.Event) {
	entry := logrus.WithField("supervisorEvent", e.Type())
	switch e.Type() {
	case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
		entry.Error(e.String())
	case suture.EventTypeBackoff:
		entry.Warn(e.String())
	default:
		entry.Info(e.String())
	}
}
