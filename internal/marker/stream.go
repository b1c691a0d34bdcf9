package marker

import "strings"

// StreamParser incrementally scans model-generated text delta-by-delta and
// emits complete [Segment] values as soon as they are known, so downstream
// audio generation can start before the model has finished its turn.
//
// The scanner never emits a partial marker: if the buffer ends mid-bracket
// (an unclosed '['), scanning halts at the '[' and resumes on the next Feed
// call once more text has arrived. Plain narration text is split into
// sentences as it accumulates, so a long narrate/npc run produces one
// Segment per sentence rather than one Segment for the whole turn.
//
// A StreamParser is not safe for concurrent use; each turn gets its own.
type StreamParser struct {
	buf      string
	scanPos  int
	voice    VoiceContext
	voiceBuf strings.Builder
	emit     func(Segment)
}

// NewStreamParser creates a scanner that starts in narrator voice and calls
// emit for each completed segment, in order.
func NewStreamParser(emit func(Segment)) *StreamParser {
	return &StreamParser{
		voice: VoiceContext{Kind: Narrate},
		emit:  emit,
	}
}

// Feed appends a raw text delta from the model stream and scans as far as
// the buffered text allows.
func (p *StreamParser) Feed(delta string) {
	p.buf += delta
	p.scan()
}

// Flush signals end of turn: any unclosed bracket is treated as literal
// text, and any residual voice buffer (including a trailing partial
// sentence) is emitted as a final segment.
func (p *StreamParser) Flush() {
	if p.scanPos < len(p.buf) {
		p.voiceBuf.WriteString(p.buf[p.scanPos:])
		p.scanPos = len(p.buf)
	}
	p.flushVoice()
	p.buf = ""
	p.scanPos = 0
}

func (p *StreamParser) scan() {
	for {
		rest := p.buf[p.scanPos:]
		idx := strings.IndexByte(rest, '[')
		if idx == -1 {
			p.voiceBuf.WriteString(rest)
			p.scanPos = len(p.buf)
			p.checkSentences()
			return
		}

		p.voiceBuf.WriteString(rest[:idx])
		bracketStart := p.scanPos + idx
		closeIdx := strings.IndexByte(p.buf[bracketStart:], ']')
		if closeIdx == -1 {
			// Unclosed marker: halt here and wait for more text. Do not
			// advance scanPos past bracketStart, so the next Feed re-scans
			// the bracket from its start.
			p.scanPos = bracketStart
			p.checkSentences()
			return
		}

		bracketEnd := bracketStart + closeIdx + 1
		tag := p.buf[bracketStart+1 : bracketEnd-1]
		kind, meta, ok := classifyTag(tag)
		if !ok {
			// Not a recognised marker; treat the bracketed text as literal.
			p.voiceBuf.WriteString(p.buf[bracketStart:bracketEnd])
			p.scanPos = bracketEnd
			continue
		}

		switch kind {
		case Ambient, SFX:
			p.flushVoice()
			p.emit(Segment{Kind: kind, Meta: meta})
		case Roll:
			// ROLL never reaches the pipeline as a Segment: it only flushes
			// whatever voice narration preceded it. The roll itself is
			// handled at the orchestrator layer via the dice event flow.
			p.flushVoice()
		case Narrate, NPC:
			p.flushVoice()
			p.voice = VoiceContext{Kind: kind, NPCName: meta}
		}
		p.scanPos = bracketEnd
	}
}

// checkSentences emits each complete sentence currently sitting in
// voiceBuf, leaving any trailing partial sentence buffered.
func (p *StreamParser) checkSentences() {
	for {
		s := p.voiceBuf.String()
		loc := sentenceEnd.FindStringIndex(s)
		if loc == nil {
			return
		}
		cut := loc[1]
		sentence := strings.TrimSpace(s[:cut])
		remainder := s[cut:]
		p.voiceBuf.Reset()
		p.voiceBuf.WriteString(remainder)
		p.emitVoice(sentence)
	}
}

// flushVoice emits whatever remains in voiceBuf, even a partial sentence,
// and resets it. Called at every voice-context switch and at Flush.
func (p *StreamParser) flushVoice() {
	content := strings.TrimSpace(p.voiceBuf.String())
	p.voiceBuf.Reset()
	p.emitVoice(content)
}

func (p *StreamParser) emitVoice(content string) {
	if content == "" {
		return
	}
	seg := Segment{Kind: p.voice.Kind, Content: content}
	if p.voice.Kind == NPC {
		seg.Meta = p.voice.NPCName
	}
	p.emit(seg)
}

// classifyTag classifies a marker's bracket contents (without brackets). ok
// is false when tag does not match any recognised marker prefix, in which
// case the bracketed text should be treated as literal narration.
//
// Segment kinds are case-insensitive in the wire grammar ([narrate],
// [Npc:Borin] and [NPC:Borin] are all the same marker), so the keyword
// itself is matched via EqualFold/hasPrefixFold; meta keeps whatever case
// followed the prefix.
func classifyTag(tag string) (kind Kind, meta string, ok bool) {
	switch {
	case strings.EqualFold(tag, tagNarrate):
		return Narrate, "", true
	case hasPrefixFold(tag, prefixNPC):
		return NPC, tag[len(prefixNPC):], true
	case hasPrefixFold(tag, prefixAmbient):
		return Ambient, tag[len(prefixAmbient):], true
	case hasPrefixFold(tag, prefixSFX):
		return SFX, tag[len(prefixSFX):], true
	case hasPrefixFold(tag, prefixRoll):
		return Roll, tag[len(prefixRoll):], true
	default:
		return "", "", false
	}
}

// hasPrefixFold reports whether s starts with prefix, ignoring case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
