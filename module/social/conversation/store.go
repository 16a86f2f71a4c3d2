package conversation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linkup/module/social/model"
	"linkup/service/mgo"
	"linkup/tools/errs"
)

// ListItem is one row of a user's conversation listing.
type ListItem struct {
	Conversation *model.Conversation            `json:"conversation"`
	Participant  *model.ConversationParticipant `json:"participant"`
	LastMessage  *model.Message                 `json:"lastMessage,omitempty"`
}

// Store abstracts conversation persistence. The multi-write units
// (conversation creation, message append, seen batch + counter reset) are
// atomic in both implementations.
type Store interface {
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	GetParticipant(ctx context.Context, conversationID, userID string) (*model.ConversationParticipant, error)
	ListParticipants(ctx context.Context, conversationID string) ([]*model.ConversationParticipant, error)
	// CreateDirect writes the conversation, both participants and the first
	// message in one unit.
	CreateDirect(ctx context.Context, conv *model.Conversation, parts []*model.ConversationParticipant, first *model.Message) error
	// AppendMessage inserts the message, bumps every other participant's
	// unread counter and moves the last-message pointer, atomically.
	AppendMessage(ctx context.Context, msg *model.Message) error
	// ListMessagesBefore returns up to limit messages strictly older than
	// before (nil means from the newest), newest first, excluding
	// deleted-for-all.
	ListMessagesBefore(ctx context.Context, conversationID string, before *time.Time, limit int) ([]*model.Message, error)
	// MarkSeen stamps seen_at on the given messages where it is still null
	// and resets the reader's unread counter to zero as one unit. Returns
	// the ids that were newly marked; a concurrent reader's stamps are not
	// reported as this reader's.
	MarkSeen(ctx context.Context, conversationID, userID string, messageIDs []string, seenAt time.Time) ([]string, error)
	// AcceptParticipant is the pending -> accepted check-and-set;
	// ErrInvalidState when the row is not pending.
	AcceptParticipant(ctx context.Context, conversationID, userID string) error
	// DeleteParticipant removes a pending row entirely; ErrInvalidState when
	// the row is not pending.
	DeleteParticipant(ctx context.Context, conversationID, userID string) error
	ListForUser(ctx context.Context, userID string) ([]*ListItem, error)
}

type mongoStore struct{}

func NewMongoStore() Store { return &mongoStore{} }

func convColl() *mongo.Collection { return (&model.Conversation{}).Collection() }
func partColl() *mongo.Collection { return (&model.ConversationParticipant{}).Collection() }
func msgColl() *mongo.Collection  { return (&model.Message{}).Collection() }

func (s *mongoStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := convColl().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find conversation", "id", id)
	}
	return &c, nil
}

func (s *mongoStore) GetParticipant(ctx context.Context, conversationID, userID string) (*model.ConversationParticipant, error) {
	var p model.ConversationParticipant
	err := partColl().FindOne(ctx, bson.M{"conversation_id": conversationID, "user_id": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("participant", "conversation", conversationID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find participant", "conversation", conversationID)
	}
	return &p, nil
}

func (s *mongoStore) ListParticipants(ctx context.Context, conversationID string) ([]*model.ConversationParticipant, error) {
	cur, err := partColl().Find(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return nil, errs.WrapMsg(err, "list participants", "conversation", conversationID)
	}
	defer func() { _ = cur.Close(ctx) }()
	var out []*model.ConversationParticipant
	for cur.Next(ctx) {
		var p model.ConversationParticipant
		if err := cur.Decode(&p); err != nil {
			return nil, errs.WrapMsg(err, "decode participant")
		}
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *mongoStore) CreateDirect(ctx context.Context, conv *model.Conversation, parts []*model.ConversationParticipant, first *model.Message) error {
	return mgo.WithTx(ctx, func(sc mongo.SessionContext) error {
		if _, err := convColl().InsertOne(sc, conv); err != nil {
			return errs.WrapMsg(err, "insert conversation")
		}
		docs := make([]any, 0, len(parts))
		for _, p := range parts {
			docs = append(docs, p)
		}
		if _, err := partColl().InsertMany(sc, docs); err != nil {
			return errs.WrapMsg(err, "insert participants")
		}
		if _, err := msgColl().InsertOne(sc, first); err != nil {
			return errs.WrapMsg(err, "insert first message")
		}
		return nil
	})
}

func (s *mongoStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	return mgo.WithTx(ctx, func(sc mongo.SessionContext) error {
		if _, err := msgColl().InsertOne(sc, msg); err != nil {
			return errs.WrapMsg(err, "insert message")
		}
		_, err := partColl().UpdateMany(sc,
			bson.M{"conversation_id": msg.ConversationID, "user_id": bson.M{"$ne": msg.SenderID}},
			bson.M{"$inc": bson.M{"unread_count": 1}})
		if err != nil {
			return errs.WrapMsg(err, "bump unread counters")
		}
		_, err = convColl().UpdateOne(sc,
			bson.M{"_id": msg.ConversationID},
			bson.M{"$set": bson.M{"last_message_id": msg.ID, "updated_at": msg.CreatedAt}})
		if err != nil {
			return errs.WrapMsg(err, "move last-message pointer")
		}
		return nil
	})
}

func (s *mongoStore) ListMessagesBefore(ctx context.Context, conversationID string, before *time.Time, limit int) ([]*model.Message, error) {
	filter := bson.M{"conversation_id": conversationID, "deleted_for_all": false}
	if before != nil {
		// strict less-than boundary; identical timestamps may straddle
		// pages, a documented ambiguity of the cursor scheme
		filter["created_at"] = bson.M{"$lt": *before}
	}
	cur, err := msgColl().Find(ctx, filter, options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, errs.WrapMsg(err, "list messages", "conversation", conversationID)
	}
	defer func() { _ = cur.Close(ctx) }()
	var out []*model.Message
	for cur.Next(ctx) {
		var m model.Message
		if err := cur.Decode(&m); err != nil {
			return nil, errs.WrapMsg(err, "decode message")
		}
		cp := m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *mongoStore) MarkSeen(ctx context.Context, conversationID, userID string, messageIDs []string, seenAt time.Time) ([]string, error) {
	var marked []string
	err := mgo.WithTx(ctx, func(sc mongo.SessionContext) error {
		marked = marked[:0]
		// seen_at is write-once: only still-null rows are stamped, and the
		// receipt reports exactly those ids
		cur, err := msgColl().Find(sc,
			bson.M{"_id": bson.M{"$in": messageIDs}, "seen_at": nil},
			options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return errs.WrapMsg(err, "find unseen messages")
		}
		for cur.Next(sc) {
			var row struct {
				ID string `bson:"_id"`
			}
			if err := cur.Decode(&row); err != nil {
				_ = cur.Close(sc)
				return errs.WrapMsg(err, "decode message id")
			}
			marked = append(marked, row.ID)
		}
		_ = cur.Close(sc)
		if len(marked) > 0 {
			if _, err := msgColl().UpdateMany(sc,
				bson.M{"_id": bson.M{"$in": marked}},
				bson.M{"$set": bson.M{"seen_at": seenAt}}); err != nil {
				return errs.WrapMsg(err, "mark messages seen")
			}
		}
		_, err = partColl().UpdateOne(sc,
			bson.M{"conversation_id": conversationID, "user_id": userID, "unread_count": bson.M{"$gt": 0}},
			bson.M{"$set": bson.M{"unread_count": 0, "updated_at": seenAt}})
		if err != nil {
			return errs.WrapMsg(err, "reset unread counter")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

func (s *mongoStore) AcceptParticipant(ctx context.Context, conversationID, userID string) error {
	res, err := partColl().UpdateOne(ctx,
		bson.M{"conversation_id": conversationID, "user_id": userID, "status": model.ParticipantPending},
		bson.M{"$set": bson.M{"status": model.ParticipantAccepted, "updated_at": time.Now()}})
	if err != nil {
		return errs.WrapMsg(err, "accept participant", "conversation", conversationID)
	}
	if res.ModifiedCount == 0 {
		return errs.ErrInvalidState.WrapMsg("invitation is not pending", "conversation", conversationID)
	}
	return nil
}

func (s *mongoStore) DeleteParticipant(ctx context.Context, conversationID, userID string) error {
	res, err := partColl().DeleteOne(ctx,
		bson.M{"conversation_id": conversationID, "user_id": userID, "status": model.ParticipantPending})
	if err != nil {
		return errs.WrapMsg(err, "delete participant", "conversation", conversationID)
	}
	if res.DeletedCount == 0 {
		return errs.ErrInvalidState.WrapMsg("invitation is not pending", "conversation", conversationID)
	}
	return nil
}

func (s *mongoStore) ListForUser(ctx context.Context, userID string) ([]*ListItem, error) {
	cur, err := partColl().Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errs.WrapMsg(err, "list participations", "user", userID)
	}
	defer func() { _ = cur.Close(ctx) }()
	parts := map[string]*model.ConversationParticipant{}
	ids := bson.A{}
	for cur.Next(ctx) {
		var p model.ConversationParticipant
		if err := cur.Decode(&p); err != nil {
			return nil, errs.WrapMsg(err, "decode participant")
		}
		cp := p
		parts[p.ConversationID] = &cp
		ids = append(ids, p.ConversationID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	ccur, err := convColl().Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "list conversations")
	}
	defer func() { _ = ccur.Close(ctx) }()

	var items []*ListItem
	lastIDs := bson.A{}
	for ccur.Next(ctx) {
		var c model.Conversation
		if err := ccur.Decode(&c); err != nil {
			return nil, errs.WrapMsg(err, "decode conversation")
		}
		cp := c
		items = append(items, &ListItem{Conversation: &cp, Participant: parts[c.ID]})
		if c.LastMessageID != "" {
			lastIDs = append(lastIDs, c.LastMessageID)
		}
	}
	if len(lastIDs) > 0 {
		mcur, err := msgColl().Find(ctx, bson.M{"_id": bson.M{"$in": lastIDs}})
		if err != nil {
			return nil, errs.WrapMsg(err, "list last messages")
		}
		defer func() { _ = mcur.Close(ctx) }()
		byID := map[string]*model.Message{}
		for mcur.Next(ctx) {
			var m model.Message
			if err := mcur.Decode(&m); err != nil {
				return nil, errs.WrapMsg(err, "decode message")
			}
			cp := m
			byID[m.ID] = &cp
		}
		for _, it := range items {
			it.LastMessage = byID[it.Conversation.LastMessageID]
		}
	}
	return items, nil
}
