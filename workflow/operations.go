package workflow

import (
	"context"

	"github.com/mmdatafocus/warehouse_client/apiclient"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/utils"
	"github.com/sirupsen/logrus"
)

// Operations is the domain operation layer the UI talks to. Every
// dependency is explicit: the upstream API client, the offline queue store,
// the mutation gate and the connectivity oracle are injected at startup,
// never reached through package globals.
type Operations struct {
	API    *apiclient.Client
	Store  *offline.Store
	Gate   *offline.Gate
	Oracle offline.Oracle
	Logger *logrus.Logger
}

func NewOperations(api *apiclient.Client, store *offline.Store, gate *offline.Gate, oracle offline.Oracle, logger *logrus.Logger) *Operations {
	return &Operations{
		API:    api,
		Store:  store,
		Gate:   gate,
		Oracle: oracle,
		Logger: logger,
	}
}

// mustQueue applies the gate, plus the one rule the gate cannot see: any
// mutation addressing a parent that only exists locally (negative id) must
// queue regardless of connectivity, since the server has never heard of that id.
func (o *Operations) mustQueue(method, url string, parentId *int64) bool {
	if parentId != nil && *parentId < 0 {
		return true
	}
	return o.Gate.ShouldQueueOfflineMutation(method, url)
}

// performAction runs one state-transition action (complete / cancel /
// delete). Queued actions return the queued acknowledgement; direct ones
// relay the server's message.
func (o *Operations) performAction(ctx context.Context, method models.MutationMethod, url string, entityType models.OfflineEntityType, docId int64, label string) (*models.ActionAck, error) {
	if o.mustQueue(string(method), url, &docId) {
		if _, err := o.Store.Enqueue(ctx, offline.MutationDescriptor{
			Method:         method,
			URL:            url,
			EntityType:     entityType,
			ParentEntityId: &docId,
		}); err != nil {
			return nil, err
		}
		return o.Store.QueuedMessage(label), nil
	}
	body, err := o.API.Do(ctx, string(method), url, nil)
	if err != nil {
		return nil, err
	}
	var ack models.ActionAck
	if len(body) > 0 {
		if err := utils.UnmarshalFromJSON(body, &ack); err != nil {
			return nil, err
		}
	}
	if ack.Message == "" {
		ack.Message = label + " confirmed"
	}
	return &ack, nil
}
