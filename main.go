package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"

	"linkup/global"
	"linkup/logger"
	"linkup/module/social/conversation"
	"linkup/module/social/friends"
	"linkup/module/social/handler"
	"linkup/module/social/model"
	"linkup/module/social/notify"
	"linkup/module/social/presence"
	"linkup/module/social/users"
	"linkup/service/bus"
	"linkup/service/gateway"
	"linkup/service/mgo"
	"linkup/service/storage"
	redisstore "linkup/service/storage/redis"
	"linkup/tools/errs"
	"linkup/tools/ids"
	"linkup/tools/security"
)

// friendCheck answers the dispatcher's invite guard straight from the edge
// store, avoiding a construction cycle with the friend service.
type friendCheck struct{ store friends.Store }

func (f friendCheck) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	e, err := f.store.GetEdge(ctx, userID, otherID)
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return e.Status == model.FriendStatusAccepted, nil
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	if err := global.Load(*cfgPath); err != nil {
		logger.Errorf("load config %s: %v", *cfgPath, err)
		os.Exit(1)
	}
	if lvl, err := zapcore.ParseLevel(global.Conf.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	ids.SetNodeID(global.Conf.NodeID)

	ctx := context.Background()
	if err := mgo.Init(ctx, mgo.Config{
		URI:         global.Conf.Mongo.URI,
		Database:    global.Conf.Mongo.Database,
		Username:    global.Conf.Mongo.Username,
		Password:    global.Conf.Mongo.Password,
		MaxPoolSize: global.Conf.Mongo.MaxPoolSize,
	}); err != nil {
		logger.Errorf("mongo init: %v", err)
		os.Exit(1)
	}
	if err := model.EnsureIndexes(ctx); err != nil {
		logger.Errorf("ensure indexes: %v", err)
		os.Exit(1)
	}
	if err := redisstore.InitRedis(redisstore.Config{
		Addr:     global.Conf.Redis.Addr,
		Password: global.Conf.Redis.Password,
		DB:       global.Conf.Redis.DB,
	}); err != nil {
		logger.Errorf("redis init: %v", err)
		os.Exit(1)
	}
	b, err := bus.Connect(global.Conf.Nats.URL)
	if err != nil {
		logger.Errorf("nats connect: %v", err)
		os.Exit(1)
	}

	presStore := storage.NewPresenceStore(redisstore.Client(), global.Conf.Presence.TTL)
	tracker := presence.NewTracker(presStore, b)

	reg := gateway.NewRegistry(gateway.Config{
		SendQueueSize: global.Conf.Gateway.SendQueueSize,
		WriteTimeout:  global.Conf.Gateway.WriteTimeout,
	}, gateway.LifecycleHooks{
		OnUserOnline: func(userID string) {
			if err := tracker.HandleConnect(context.Background(), userID); err != nil {
				logger.Warnf("presence connect user=%s: %v", userID, err)
			}
		},
		OnUserOffline: func(userID string) {
			if err := tracker.HandleDisconnect(context.Background(), userID); err != nil {
				logger.Warnf("presence disconnect user=%s: %v", userID, err)
			}
		},
	})

	jwtOpts := security.DefaultOptions(global.JwtSecret())
	jwtOpts.TTL = global.Conf.Server.TokenTTL

	userStore := users.NewMongoStore()
	friendStore := friends.NewMongoStore()
	convStore := conversation.NewMongoStore()
	notifyStore := notify.NewMongoStore()

	dispatcher := notify.NewDispatcher(notifyStore, userStore, reg,
		friendCheck{store: friendStore}, conversation.StatusChecker{Store: convStore})

	userSvc := users.NewService(userStore, jwtOpts)
	friendSvc := friends.NewService(friendStore, userStore, dispatcher, tracker)
	convSvc := conversation.NewService(convStore, userStore, dispatcher, reg)
	notifySvc := notify.NewService(notifyStore)

	fanout := presence.NewFanout(userStore, friendSvc, reg)
	if err := b.Subscribe(presence.SubjectTransition, fanout.HandleTransition); err != nil {
		logger.Errorf("subscribe presence transitions: %v", err)
		os.Exit(1)
	}

	ws := gateway.NewWsServer(reg, tracker, jwtOpts, global.Conf.Gateway.HeartbeatInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	handler.Register(r, handler.Deps{
		Users:         handler.NewUserHandler(userSvc),
		Friends:       handler.NewFriendHandler(friendSvc),
		Conversations: handler.NewConversationHandler(convSvc),
		Notifications: handler.NewNotificationHandler(notifySvc),
		WS:            ws,
		JWT:           jwtOpts,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", global.Conf.Server.Port),
		Handler: r,
	}
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	reg.Close()
	b.Close()
	mgo.Close(shutdownCtx)
}
