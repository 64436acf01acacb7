// Package enrich turns a broadcast that survived lifecycle and
// geospatial filtering into a delivery-ready model.DeliveryRecord:
// HTML stripped, area names abbreviated, watch points annotated with
// Maidenhead/UTM/address, and optional translation/summarization/map
// rendering layered on top. Ported from spec.md §4.6, itself distilled
// from _examples/original_source/src/modules/mowas.py's per-area loop.
package enrich

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jschultzelutter/mowas-beacon/internal/enrich/geocode"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/staticmap"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/summarize"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich/translate"
	"github.com/jschultzelutter/mowas-beacon/internal/geodesy"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// areaPrefixes are the well-known German administrative prefixes
// stripped to build an area's abbreviated name. Order matters: longer,
// more specific prefixes are tried first.
var areaPrefixes = []string{
	"Gemeinde/Stadt: ",
	"Landkreis/Stadt: ",
	"Bundesland: ",
	"Freistaat ",
	"Freie Hansestadt ",
	"Land: ",
	"Land ",
}

// htmlTag matches a "<...>" span, including attributes, for stripping.
var htmlTag = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes any "<tag>" or "<tag attr=\"x\">" span, leaving
// surrounding whitespace and text unchanged.
func StripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

// AbbreviateArea strips the first matching well-known prefix from desc.
func AbbreviateArea(desc string) string {
	for _, prefix := range areaPrefixes {
		if strings.HasPrefix(desc, prefix) {
			return strings.Replace(desc, prefix, "", 1)
		}
	}
	return desc
}

// ContainsCovidContent reports whether any of headline, description, or
// instruction mentions covid/corona, case-insensitively. Callers apply
// this before the broadcast reaches the cache, per spec.md §4.6's Covid
// policy.
func ContainsCovidContent(headline, description, instruction string) bool {
	for _, s := range []string{headline, description, instruction} {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "covid") || strings.Contains(lower, "corona") {
			return true
		}
	}
	return false
}

// AreaMatch is one area from the broadcast that matched at least one
// watch point, together with the points that matched it.
type AreaMatch struct {
	AreaDesc string
	Geocodes []string
	Polygon  []model.LatLon
	Points   []model.WatchPoint
}

// Config bundles the enrichment pipeline's pluggable collaborators and
// tunables. A nil Geocoder yields geocode.FallbackAddress for every
// point, a nil Translator skips translation, a nil Summarizer leaves
// SMSMessage equal to the description, and a nil MapRenderer produces
// no map.
type Config struct {
	Geocoder      geocode.Reverser
	Translator    translate.Translator
	Summarizer    summarize.Summarizer
	MapRenderer   staticmap.Renderer
	TargetLang    string
	HighPrioLevel model.Severity
	LivePoint     *model.WatchPoint
}

// Enrich builds a DeliveryRecord for b given the areas that matched the
// user's watch points.
func Enrich(ctx context.Context, b model.Broadcast, matches []AreaMatch, cfg Config) model.DeliveryRecord {
	info := b.PrimaryInfo()

	rec := model.DeliveryRecord{
		Identifier: b.Identifier,
		MsgType:    b.MsgType,
		Sent:       b.Sent,
	}
	if info != nil {
		rec.Headline = StripHTML(info.Headline)
		rec.Description = StripHTML(info.Description)
		rec.Instruction = StripHTML(info.Instruction)
		rec.Contact = StripHTML(info.Contact)
		rec.Severity = info.Severity
		rec.Urgency = info.Urgency
	}

	rec.Areas, rec.Geocodes, rec.Polygon = collectAreas(matches)
	rec.MatchedPoints = collectPoints(ctx, matches, cfg)

	rec.PriorityHigh = rec.Severity.AtLeast(cfg.HighPrioLevel) && b.MsgType != model.MsgTypeCancel

	if cfg.TargetLang != "" && cfg.Translator != nil {
		rec.Translation = translateRecord(ctx, rec, cfg)
	}

	if cfg.Summarizer != nil {
		if sms, err := cfg.Summarizer.Summarize(ctx, rec.Description); err == nil {
			rec.SMSMessage = sms
		} else {
			log.Debug().Err(err).Str("identifier", b.Identifier).Msg("summarizer unavailable, using full description")
			rec.SMSMessage = rec.Description
		}
	} else {
		rec.SMSMessage = rec.Description
	}

	if cfg.TargetLang != "" && cfg.Translator != nil {
		rec.Translation = translateRecord(ctx, rec, cfg)
	}

	if cfg.MapRenderer != nil {
		if bytes, err := cfg.MapRenderer.Render(ctx, rec.Polygon, rec.MatchedPoints); err == nil {
			rec.Map = model.MapArtifact{Present: true, Bytes: bytes}
		} else {
			log.Debug().Err(err).Str("identifier", b.Identifier).Msg("map rendering failed, continuing without image")
		}
	}

	return rec
}

func collectAreas(matches []AreaMatch) ([]model.MatchedArea, []string, []model.LatLon) {
	seenAreas := make(map[string]bool)
	seenGeocodes := make(map[string]bool)

	var areas []model.MatchedArea
	var geocodes []string
	var polygon []model.LatLon

	for i, m := range matches {
		if i == 0 {
			polygon = m.Polygon
		}
		if !seenAreas[m.AreaDesc] {
			seenAreas[m.AreaDesc] = true
			areas = append(areas, model.MatchedArea{
				FullName:        m.AreaDesc,
				AbbreviatedName: AbbreviateArea(m.AreaDesc),
				Geocodes:        m.Geocodes,
			})
		}
		for _, g := range m.Geocodes {
			if !seenGeocodes[g] {
				seenGeocodes[g] = true
				geocodes = append(geocodes, g)
			}
		}
	}

	return areas, geocodes, polygon
}

func collectPoints(ctx context.Context, matches []AreaMatch, cfg Config) []model.MatchedPoint {
	type key struct{ lat, lon float64 }
	seen := make(map[key]bool)

	var points []model.MatchedPoint
	for _, m := range matches {
		for _, wp := range m.Points {
			k := key{wp.Latitude, wp.Longitude}
			if seen[k] {
				continue
			}
			seen[k] = true

			address := geocode.FallbackAddress
			if cfg.Geocoder != nil {
				if addr, err := cfg.Geocoder.Reverse(ctx, wp.Latitude, wp.Longitude); err == nil {
					address = addr
				}
			}

			isLive := cfg.LivePoint != nil && cfg.LivePoint.Latitude == wp.Latitude && cfg.LivePoint.Longitude == wp.Longitude

			points = append(points, model.MatchedPoint{
				Latitude:   wp.Latitude,
				Longitude:  wp.Longitude,
				Address:    address,
				Maidenhead: geodesy.Maidenhead(wp.Latitude, wp.Longitude, 4),
				UTM:        geodesy.ToUTM(wp.Latitude, wp.Longitude).String(),
				IsLive:     isLive,
			})
		}
	}
	return points
}

func translateRecord(ctx context.Context, rec model.DeliveryRecord, cfg Config) *model.Translation {
	texts := []string{rec.Headline, rec.Description, rec.Instruction, rec.Contact, rec.SMSMessage}
	out, err := cfg.Translator.Translate(ctx, texts, cfg.TargetLang)
	if err != nil {
		log.Debug().Err(err).Str("identifier", rec.Identifier).Msg("translation unavailable")
		return nil
	}
	if len(out) != len(texts) {
		return nil
	}
	return &model.Translation{
		Headline:    out[0],
		Description: out[1],
		Instruction: out[2],
		Contact:     out[3],
		SMSMessage:  out[4],
	}
}
