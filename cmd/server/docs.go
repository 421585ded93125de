// Package main HackHub Server API
//
//	@title						HackHub Server API
//	@version					1.0
//	@description				Hackathon team formation and coordination API
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Hackathons
//	@tag.description			Hackathon directory and participant registration
//
//	@tag.name					Teams
//	@tag.description			Team registry: creation, requests, invitations, membership
//
//	@tag.name					Notifications
//	@tag.description			Durable notifications and actionable workflows
//
//	@tag.name					Push
//	@tag.description			Live event stream
package main
