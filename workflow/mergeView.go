package workflow

import (
	"context"

	"github.com/mmdatafocus/warehouse_client/config"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/utils"
)

// fetchServerList loads one collection from the API, degrading to an empty
// contribution when the device is offline or the transport fails. Reads
// must never surface an expected-unavailability error: the queued view
// still has to render.
func fetchServerList[T any](ctx context.Context, o *Operations, path string) []*T {
	if o.Oracle != nil && o.Oracle.IsOfflineNow() {
		return nil
	}
	body, err := o.API.Get(ctx, path)
	if err != nil {
		if o.Logger != nil {
			config.LogError(o.Logger, "workflow", "fetchServerList", path, nil, err)
		}
		return nil
	}
	var list []*T
	if err := utils.UnmarshalFromJSON(body, &list); err != nil {
		if o.Logger != nil {
			config.LogError(o.Logger, "workflow", "fetchServerList", path, nil, err)
		}
		return nil
	}
	return list
}

// synthesizeAll projects queued records through one synthesizer. A record
// that fails to synthesize is logged and skipped; it stays in the queue for
// the replay engine either way.
func synthesizeAll[T any](o *Operations, records []*models.QueuedMutation, project func(*models.QueuedMutation) (*T, error)) []*T {
	out := make([]*T, 0, len(records))
	for _, rec := range records {
		entity, err := project(rec)
		if err != nil {
			if o.Logger != nil {
				config.LogError(o.Logger, "workflow", "synthesizeAll", string(rec.EntityType), rec.ID, err)
			}
			continue
		}
		out = append(out, entity)
	}
	return out
}

// mergeDocuments places queued documents before server documents: new
// offline work sorts to the top of the list.
func mergeDocuments[T any](queued, server []*T) []*T {
	merged := make([]*T, 0, len(queued)+len(server))
	merged = append(merged, queued...)
	merged = append(merged, server...)
	return merged
}

// mergeItems places server items before queued items: confirmed lines keep
// their order and offline additions append at the end. The asymmetry with
// mergeDocuments is deliberate; keep both helpers rather than unifying.
func mergeItems[T any](server, queued []*T) []*T {
	merged := make([]*T, 0, len(server)+len(queued))
	merged = append(merged, server...)
	merged = append(merged, queued...)
	return merged
}
