//
// Store Operations is pleased to support the open source community by making sop-agent-go available.
//
// Copyright (C) 2025 Store Operations.
// All rights reserved.
//
// If you have downloaded a copy of the sop-agent-go source code from Store Operations,
// please note that sop-agent-go source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package a2a

import (
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/storeops/sop-agent-go/orchestrator"
)

// requestFromMessage flattens a protocol message into a request. Text
// parts concatenate into the utterance; data parts carrying a mapping
// merge into the request data, where tenant_id, thread_id and a
// headers mapping may live. Message metadata passes through as is.
func requestFromMessage(message protocol.Message) *orchestrator.Request {
	var text strings.Builder
	data := make(map[string]any)

	for _, part := range message.Parts {
		switch part.GetKind() {
		case protocol.KindText:
			p, ok := part.(*protocol.TextPart)
			if !ok {
				continue
			}
			text.WriteString(p.Text)
		case protocol.KindData:
			d, ok := part.(*protocol.DataPart)
			if !ok {
				continue
			}
			fields, ok := d.Data.(map[string]any)
			if !ok {
				continue
			}
			for key, value := range fields {
				data[key] = value
			}
		}
	}

	return &orchestrator.Request{
		Text:     text.String(),
		Metadata: message.Metadata,
		Data:     data,
	}
}
