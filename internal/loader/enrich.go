package loader

import (
	"time"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// enrich converts one raw PR object into a typed record with computed
// fields. Fields that cannot be derived (e.g. closed_at on an open PR) are
// left absent rather than zero-filled.
func enrich(raw map[string]any, now time.Time) dataset.Record {
	rec := dataset.Record{}

	putNumber(rec, "number", raw["number"])
	putText(rec, "title", raw["title"])
	putText(rec, "state", raw["state"])
	putBool(rec, "locked", raw["locked"])

	if draft, ok := raw["draft"].(bool); ok {
		rec["is_draft"] = draft
	} else {
		rec["is_draft"] = false
	}

	if user, ok := raw["user"].(map[string]any); ok {
		putText(rec, "author", user["login"])
	}

	body, _ := raw["body"].(string)
	rec["body_length"] = float64(len(body))

	comments := toNumber(raw["comments"])
	rec["comments"] = comments

	enrichTimes(rec, raw, now)
	githubCount := enrichGithubLabels(rec, raw)
	assignedCount := enrichAssignedLabels(rec, raw)

	reactions := totalReactions(raw["reactions"])
	rec["total_reactions"] = reactions
	rec["activity_score"] = comments + reactions

	rec["complexity"] = complexity(len(body), githubCount, assignedCount)

	return rec
}

// enrichTimes parses the RFC 3339 timestamps and derives age fields.
func enrichTimes(rec dataset.Record, raw map[string]any, now time.Time) {
	created, createdOK := parseTime(raw["created_at"])
	if createdOK {
		rec["created_at"] = created
		age := float64(int(now.Sub(created).Hours() / 24))
		rec["age_days"] = age
		rec["time_bucket"] = timeBucket(age)
		rec["created_year"] = float64(created.Year())
		rec["created_month"] = float64(created.Month())
	}
	if updated, ok := parseTime(raw["updated_at"]); ok {
		rec["updated_at"] = updated
		rec["days_since_update"] = float64(int(now.Sub(updated).Hours() / 24))
	}
	if closed, ok := parseTime(raw["closed_at"]); ok {
		rec["closed_at"] = closed
	}
}

// enrichGithubLabels extracts the GitHub label names and count.
func enrichGithubLabels(rec dataset.Record, raw map[string]any) int {
	labels, _ := raw["labels"].([]any)
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if obj, ok := l.(map[string]any); ok {
			if name, ok := obj["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	rec["github_label_names"] = names
	rec["github_label_count"] = float64(len(names))
	return len(names)
}

// enrichAssignedLabels keeps the assigned labels as a queryable object list
// and derives the name list plus the highest-confidence primary label.
func enrichAssignedLabels(rec dataset.Record, raw map[string]any) int {
	assigned, _ := raw["labels_assigned"].([]any)

	objs := make([]dataset.Object, 0, len(assigned))
	names := make([]string, 0, len(assigned))
	primary := ""
	best := -1.0

	for _, a := range assigned {
		obj, ok := a.(map[string]any)
		if !ok {
			continue
		}
		label, _ := obj["label"].(string)
		confidence := toNumber(obj["confidence"])
		objs = append(objs, dataset.Object{"label": label, "confidence": confidence})
		names = append(names, label)
		if confidence > best {
			best = confidence
			primary = label
		}
	}

	rec["labels_assigned"] = objs
	rec["assigned_label_names"] = names
	rec["assigned_label_count"] = float64(len(objs))
	if primary != "" {
		rec["primary_label"] = primary
	}
	return len(objs)
}

// totalReactions reads the total_count counter, falling back to summing the
// per-reaction counters for dumps that omit it.
func totalReactions(v any) float64 {
	reactions, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	if total, ok := reactions["total_count"]; ok {
		return toNumber(total)
	}
	total := 0.0
	for key, val := range reactions {
		if key == "url" {
			continue
		}
		total += toNumber(val)
	}
	return total
}

// timeBucket maps an age in days onto a coarse human-readable bucket.
func timeBucket(days float64) string {
	switch {
	case days < 30:
		return "< 1 month"
	case days < 90:
		return "1-3 months"
	case days < 180:
		return "3-6 months"
	case days < 365:
		return "6-12 months"
	default:
		return "> 1 year"
	}
}

// complexity scores a PR from body size and label pressure.
func complexity(bodyLen, githubLabels, assignedLabels int) string {
	score := 0
	if bodyLen > 2000 {
		score += 2
	} else if bodyLen > 500 {
		score++
	}
	if githubLabels > 3 {
		score++
	}
	if assignedLabels > 1 {
		score++
	}
	switch {
	case score >= 3:
		return "high"
	case score >= 1:
		return "medium"
	default:
		return "low"
	}
}

func putText(rec dataset.Record, field string, v any) {
	if s, ok := v.(string); ok {
		rec[field] = s
	}
}

func putBool(rec dataset.Record, field string, v any) {
	if b, ok := v.(bool); ok {
		rec[field] = b
	}
}

func putNumber(rec dataset.Record, field string, v any) {
	if n, ok := v.(float64); ok {
		rec[field] = n
	}
}

func toNumber(v any) float64 {
	n, _ := v.(float64)
	return n
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
