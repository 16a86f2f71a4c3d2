package handler

import (
	"github.com/gin-gonic/gin"

	"linkup/middleware"
	"linkup/service/gateway"
	"linkup/tools/security"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Users         *UserHandler
	Friends       *FriendHandler
	Conversations *ConversationHandler
	Notifications *NotificationHandler
	WS            *gateway.WsServer
	JWT           security.Options
}

// Register mounts the full HTTP surface on the engine.
func Register(r *gin.Engine, d Deps) {
	r.Use(middleware.Origin())

	r.POST("/auth/signup", d.Users.Signup)
	r.POST("/auth/login", d.Users.Login)

	// the websocket handshake authenticates via query token itself
	r.GET("/ws", d.WS.HandleWS)

	api := r.Group("/api", middleware.Auth(d.JWT))
	{
		api.GET("/me", d.Users.Me)

		api.GET("/friends", d.Friends.List)
		api.POST("/friends/requests", d.Friends.SendRequest)
		api.GET("/friends/requests", d.Friends.ListRequests)
		api.GET("/friends/requests/sent", d.Friends.ListSent)
		api.GET("/friends/requests/ignored", d.Friends.ListIgnored)
		api.POST("/friends/requests/:requestId/accept", d.Friends.Accept)
		api.POST("/friends/requests/:requestId/ignore", d.Friends.Ignore)
		api.DELETE("/friends/requests/:requestId", d.Friends.Cancel)
		api.DELETE("/friends/:friendId", d.Friends.Remove)
		api.GET("/friends/status/:userId", d.Friends.Status)

		api.GET("/conversations", d.Conversations.List)
		api.POST("/conversations", d.Conversations.CreateDirect)
		api.GET("/conversations/:id/messages", d.Conversations.Messages)
		api.POST("/conversations/:id/messages", d.Conversations.SendMessage)
		api.POST("/conversations/:id/accept", d.Conversations.Accept)
		api.POST("/conversations/:id/reject", d.Conversations.Reject)

		api.GET("/notifications", d.Notifications.List)
		api.GET("/notifications/unread-count", d.Notifications.UnreadCount)
		api.PATCH("/notifications/:id/read", d.Notifications.MarkRead)
		api.PATCH("/notifications/read-all", d.Notifications.MarkAllRead)
	}
}
