package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"social-relay/domain/model"
	"social-relay/infrastructure/clients/apiclient"
)

const (
	recipeImage = "urn:li:digitalmediaRecipe:feedshare-image"
	recipeVideo = "urn:li:digitalmediaRecipe:feedshare-video"

	categoryNone  = "NONE"
	categoryImage = "IMAGE"
	categoryVideo = "VIDEO"
)

type registerUploadRequest struct {
	RegisterUploadRequest registerUploadBody `json:"registerUploadRequest"`
}

type registerUploadBody struct {
	Owner                string                `json:"owner"`
	Recipes              []string              `json:"recipes"`
	ServiceRelationships []serviceRelationship `json:"serviceRelationships"`
}

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism map[string]struct {
			UploadURL string            `json:"uploadUrl"`
			Headers   map[string]string `json:"headers"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

// UploadMedia registers an upload slot for the member, PUTs the bytes and returns the asset URN.
func (c *Client) UploadMedia(ctx context.Context, cred model.Credential, media model.MediaContent) (string, error) {
	recipe := recipeImage
	if media.Kind == model.MediaKindVideo {
		recipe = recipeVideo
	}

	var registered registerUploadResponse
	_, err := apiclient.DoJSON(ctx, c.httpClient, apiclient.Request{
		Operation: "linkedin register upload",
		Method:    http.MethodPost,
		URL:       c.apiBase + "/v2/assets?action=registerUpload",
		Header:    bearer(cred.AccessToken),
		JSON: registerUploadRequest{RegisterUploadRequest: registerUploadBody{
			Owner:   cred.ActorID,
			Recipes: []string{recipe},
			ServiceRelationships: []serviceRelationship{
				{RelationshipType: "OWNER", Identifier: "urn:li:userGeneratedContent"},
			},
		}},
	}, &registered)
	if err != nil {
		return "", err
	}

	uploadURL := ""
	header := bearer(cred.AccessToken)
	for _, mech := range registered.Value.UploadMechanism {
		uploadURL = mech.UploadURL
		for k, v := range mech.Headers {
			header.Set(k, v)
		}
		break
	}
	if uploadURL == "" || registered.Value.Asset == "" {
		return "", errors.New("linkedin register upload: response missing upload url or asset")
	}

	if _, err := apiclient.Do(ctx, c.uploadClient, apiclient.Request{
		Operation:   "linkedin upload bytes",
		Method:      http.MethodPut,
		URL:         uploadURL,
		Header:      header,
		Body:        media.Body,
		ContentType: media.MimeType,
	}); err != nil {
		return "", err
	}
	return registered.Value.Asset, nil
}

func (c *Client) BuildPayload(cred model.Credential, text, mediaRef string, kind model.MediaKind) model.PostPayload {
	category := categoryNone
	if mediaRef != "" {
		category = categoryImage
		if kind == model.MediaKindVideo {
			category = categoryVideo
		}
	}
	return model.PostPayload{
		Author:     cred.ActorID,
		Text:       text,
		MediaRef:   mediaRef,
		MediaKind:  kind,
		Visibility: model.VisibilityPublic,
		Category:   category,
	}
}

type ugcPost struct {
	Author          string                 `json:"author"`
	LifecycleState  string                 `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string      `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    textValue    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media"`
}

type shareMedia struct {
	Status      string    `json:"status"`
	Description textValue `json:"description"`
	Media       string    `json:"media"`
	Title       textValue `json:"title"`
}

type textValue struct {
	Text string `json:"text"`
}

func (c *Client) Publish(ctx context.Context, cred model.Credential, payload model.PostPayload) (string, error) {
	content := shareContent{
		ShareCommentary:    textValue{Text: payload.Text},
		ShareMediaCategory: payload.Category,
		Media:              []shareMedia{},
	}
	if payload.MediaRef != "" {
		content.Media = append(content.Media, shareMedia{
			Status: "READY",
			Media:  payload.MediaRef,
			Title:  textValue{Text: payload.Title},
		})
	}
	body := ugcPost{
		Author:          payload.Author,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]shareContent{"com.linkedin.ugc.ShareContent": content},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": payload.Visibility},
	}

	header := bearer(cred.AccessToken)
	header.Set("X-Restli-Protocol-Version", restliVersion)
	var created struct {
		ID string `json:"id"`
	}
	resp, err := apiclient.DoJSON(ctx, c.httpClient, apiclient.Request{
		Operation: "linkedin ugc post",
		Method:    http.MethodPost,
		URL:       c.apiBase + "/v2/ugcPosts",
		Header:    header,
		JSON:      body,
	}, &created)
	if err != nil {
		return "", err
	}
	if created.ID != "" {
		return created.ID, nil
	}
	if id := resp.Header.Get("X-RestLi-Id"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("linkedin ugc post: no post id in response")
}
