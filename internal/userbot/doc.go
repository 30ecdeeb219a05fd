// Package userbot — воркер-отправитель Hybrid ShieldBot. Именно он (и
// только он) пишет end-юзерам, всегда с protect_content:
//   - принимает входящие лички и кладёт их задачами NEW_DM в MongoDB;
//   - разбирает READY_TO_SEND и выполняет защищённую отправку ответа.
//
// Токен бота-отправителя живёт в БД (ключ SESSION_TOKEN) и задаётся
// через std-бота командой /set_session: воркер стартует без токена,
// ждёт его появления и подхватывает на лету. При падении клиента —
// пересоздание через 5 секунд со свежим токеном из БД.
package userbot
