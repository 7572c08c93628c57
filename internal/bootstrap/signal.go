// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	signalBuiltin "github.com/AccelByte/extend-realm-guard/pkg/signal/builtin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// InitSignalProcessor creates and initializes a signal processor with builtin event processors.
//
// ============================================================
// DEVELOPER: Register custom event processors here.
// ============================================================
// Event processors turn the game client's event envelopes into signals.
// Each processor handles one envelope type (join, chat, packet, ...).
//
// Steps to add a new event processor:
// 1. Create your processor in pkg/signal/builtin/ (see examples)
// 2. Implement the EventProcessor interface
// 3. Register it in pkg/signal/builtin/event_processors.go
// 4. The registration function is called below automatically
// ============================================================
func InitSignalProcessor(clock clockwork.Clock) *signal.Processor {
	processor := signal.NewProcessor(clock)

	signalBuiltin.RegisterEventProcessors(processor.GetEventProcessorRegistry())

	logrus.Infof("initialized signal processor with %d event processors",
		processor.GetEventProcessorRegistry().Count())

	// ============================================================
	// DEVELOPER: Register custom event processors below
	// ============================================================
	// customProcessor := mycustom.NewMyEventProcessor()
	// processor.GetEventProcessorRegistry().Register(customProcessor)
	// ============================================================

	return processor
}
